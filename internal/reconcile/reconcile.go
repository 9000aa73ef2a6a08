// Package reconcile checks that every reference banner exists under every locale.
package reconcile

import (
	"os"

	"bannercheck/internal/inventory"
	"bannercheck/internal/logger"
	"bannercheck/pkg/models"
)

// Entry is the presence of one banner under one locale
type Entry struct {
	Banner models.BannerKey `json:"banner"`
	Locale string           `json:"locale"`
	Found  bool             `json:"found"`
	Path   string           `json:"path"` // Exact joined path that was checked
}

// Result is the presence table for an inventory
type Result struct {
	entries []Entry
	index   map[models.BannerKey]map[string]int
}

// Reconcile looks up every (banner, locale) pair at exactly the joined path.
// It performs no I/O beyond existence checks.
func Reconcile(inv *inventory.Inventory) *Result {
	log := logger.WithComponent("reconcile")

	res := &Result{
		entries: make([]Entry, 0, len(inv.Banners)*len(inv.Locales)),
		index:   make(map[models.BannerKey]map[string]int, len(inv.Banners)),
	}

	missing := 0
	for _, key := range inv.Banners {
		res.index[key] = make(map[string]int, len(inv.Locales))
		for _, locale := range inv.Locales {
			path := inv.Path(locale, key)
			found := exists(path)
			if locale == inv.Reference {
				path = inv.Files[locale][key]
				found = true
			}
			if !found {
				missing++
				log.Debug().Str("banner", string(key)).Str("locale", locale).Msg("Banner missing for locale")
			}
			res.index[key][locale] = len(res.entries)
			res.entries = append(res.entries, Entry{Banner: key, Locale: locale, Found: found, Path: path})
		}
	}

	log.Info().
		Int("banners", len(inv.Banners)).
		Int("locales", len(inv.Locales)).
		Int("missing", missing).
		Msg("Structural reconciliation completed")

	return res
}

// Lookup returns the entry for a pair and whether the pair is known
func (r *Result) Lookup(key models.BannerKey, locale string) (Entry, bool) {
	byLocale, ok := r.index[key]
	if !ok {
		return Entry{}, false
	}
	i, ok := byLocale[locale]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Found reports whether the banner exists for the locale
func (r *Result) Found(key models.BannerKey, locale string) bool {
	e, ok := r.Lookup(key, locale)
	return ok && e.Found
}

// Entries returns all pairs in banner-major, locale-minor order
func (r *Result) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Missing returns the pairs whose file was not found
func (r *Result) Missing() []Entry {
	var out []Entry
	for _, e := range r.entries {
		if !e.Found {
			out = append(out, e)
		}
	}
	return out
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Package inventory scans a decompressed banner archive. Top-level folders are
// locale codes; the reference locale's image files define the set of banners
// every other locale is checked against.
package inventory

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"bannercheck/internal/logger"
	"bannercheck/pkg/models"
)

var (
	// ErrReferenceLocaleNotFound is returned when no top-level folder matches the reference locale.
	ErrReferenceLocaleNotFound = errors.New("reference locale folder not found")

	// ErrNotADirectory is returned when the archive root is not a directory.
	ErrNotADirectory = errors.New("path is not a directory")
)

// DefaultJunkDirs are platform artifact folders never treated as locales or banners
var DefaultJunkDirs = []string{"__MACOSX"}

// Options controls how an archive root is interpreted
type Options struct {
	ReferenceLocale string   // Reference locale code, matched case-insensitively
	JunkDirs        []string // Folder names skipped at any depth, matched case-insensitively
}

// Inventory is the locale/banner layout of one archive
type Inventory struct {
	Root      string                                 // Absolute archive root
	Reference string                                 // Normalized reference locale code
	Locales   []string                               // Reference first, then the rest sorted
	Dirs      map[string]string                      // Locale code -> absolute locale folder
	Banners   []models.BannerKey                     // Banners under the reference locale, sorted
	Files     map[string]map[models.BannerKey]string // Locale -> banner -> absolute path (reference only until reconciled)
}

// NormalizeLocale lowercases and trims a locale code
func NormalizeLocale(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Path returns the file a banner is expected at for the given locale.
// It does not check that the file exists.
func (inv *Inventory) Path(locale string, key models.BannerKey) string {
	dir, ok := inv.Dirs[locale]
	if !ok {
		return ""
	}
	return filepath.Join(dir, filepath.FromSlash(string(key)))
}

// Targets returns every locale except the reference
func (inv *Inventory) Targets() []string {
	out := make([]string, 0, len(inv.Locales))
	for _, l := range inv.Locales {
		if l != inv.Reference {
			out = append(out, l)
		}
	}
	return out
}

// Build scans root and returns its inventory
func Build(root string, opts Options) (*Inventory, error) {
	const op = "Build"
	log := logger.WithComponent("inventory")

	if opts.ReferenceLocale == "" {
		opts.ReferenceLocale = "en"
	}
	if opts.JunkDirs == nil {
		opts.JunkDirs = DefaultJunkDirs
	}
	reference := NormalizeLocale(opts.ReferenceLocale)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve %s: %w", op, root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to access %s: %w", op, absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrNotADirectory, absRoot)
	}

	dirs, err := localeDirs(absRoot, opts.JunkDirs, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := dirs[reference]; !ok {
		// Archives are often zipped with one wrapper folder around the locales.
		if len(dirs) == 1 {
			for _, wrapper := range dirs {
				if inner, err := localeDirs(wrapper, opts.JunkDirs, log); err == nil {
					if _, ok := inner[reference]; ok {
						log.Debug().Str("wrapper", wrapper).Msg("Descending into archive wrapper folder")
						return Build(wrapper, opts)
					}
				}
			}
		}
		return nil, fmt.Errorf("%s: %w: %q under %s", op, ErrReferenceLocaleNotFound, reference, absRoot)
	}

	inv := &Inventory{
		Root:      absRoot,
		Reference: reference,
		Dirs:      dirs,
		Files:     map[string]map[models.BannerKey]string{},
	}

	for code := range dirs {
		if code != reference {
			inv.Locales = append(inv.Locales, code)
		}
	}
	sort.Strings(inv.Locales)
	inv.Locales = append([]string{reference}, inv.Locales...)

	files, err := scanImages(dirs[reference], opts.JunkDirs)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to scan reference locale: %w", op, err)
	}
	inv.Files[reference] = files
	for key := range files {
		inv.Banners = append(inv.Banners, key)
	}
	sort.Slice(inv.Banners, func(i, j int) bool { return inv.Banners[i] < inv.Banners[j] })

	log.Info().
		Str("root", absRoot).
		Str("reference", reference).
		Strs("locales", inv.Locales).
		Int("banners", len(inv.Banners)).
		Msg("Inventory built")

	return inv, nil
}

// localeDirs maps normalized locale codes to their folders directly under root
func localeDirs(root string, junk []string, log zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	dirs := make(map[string]string)
	for _, e := range entries {
		if !e.IsDir() || isJunk(e.Name(), junk) {
			continue
		}
		code := NormalizeLocale(e.Name())
		if code == "" {
			continue
		}
		if prev, dup := dirs[code]; dup {
			log.Warn().
				Str("locale", code).
				Str("kept", prev).
				Str("ignored", e.Name()).
				Msg("Duplicate locale folder differing only by case")
			continue
		}
		dirs[code] = filepath.Join(root, e.Name())
	}
	return dirs, nil
}

// scanImages walks dir collecting image files keyed by forward-slash relative path
func scanImages(dir string, junk []string) (map[models.BannerKey]string, error) {
	files := make(map[models.BannerKey]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && isJunk(d.Name(), junk) {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsImage(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[models.BannerKey(filepath.ToSlash(rel))] = path
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// IsImage reports whether name has a recognized banner image extension
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	default:
		return false
	}
}

func isJunk(name string, junk []string) bool {
	for _, j := range junk {
		if strings.EqualFold(name, j) {
			return true
		}
	}
	return false
}

// Package dimension checks banner pixel sizes against the reference locale and
// against the nominal size declared in the file name.
package dimension

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"bannercheck/internal/inventory"
	"bannercheck/internal/logger"
	"bannercheck/internal/reconcile"
	"bannercheck/pkg/models"
)

// DefaultScale is the multiplier between declared (1x) and delivered pixel sizes
const DefaultScale = 2

// Status is the outcome of one size comparison
type Status string

const (
	StatusCorrect             Status = "CORRECT"
	StatusIncorrect           Status = "INCORRECT"
	StatusUnreadable          Status = "UNREADABLE"
	StatusReferenceUnreadable Status = "REFERENCE_UNREADABLE"
	StatusUndeclared          Status = "UNDECLARED"
	StatusSkipped             Status = "SKIPPED"
)

// Failed reports whether the status counts as a size failure
func (s Status) Failed() bool {
	return s == StatusIncorrect || s == StatusUnreadable || s == StatusReferenceUnreadable
}

// Basis selects what a locale's real size is compared against
type Basis string

const (
	// BasisReference compares against the reference locale's real size
	BasisReference Basis = "reference"
	// BasisDeclared compares against the size declared in the file name times the scale
	BasisDeclared Basis = "declared"
)

// ParseBasis validates a basis name
func ParseBasis(s string) (Basis, error) {
	switch Basis(strings.ToLower(strings.TrimSpace(s))) {
	case BasisReference, "":
		return BasisReference, nil
	case BasisDeclared:
		return BasisDeclared, nil
	default:
		return "", fmt.Errorf("unknown size basis %q (want %q or %q)", s, BasisReference, BasisDeclared)
	}
}

var declaredPattern = regexp.MustCompile(`(\d+)x(\d+)`)

// ParseDeclared extracts the first <width>x<height> occurrence from a banner key.
// The boolean is false when the name declares no size.
func ParseDeclared(key models.BannerKey) (models.Size, bool) {
	m := declaredPattern.FindStringSubmatch(string(key))
	if m == nil {
		return models.Size{}, false
	}
	w, errW := strconv.Atoi(m[1])
	h, errH := strconv.Atoi(m[2])
	if errW != nil || errH != nil {
		return models.Size{}, false
	}
	return models.Size{Width: w, Height: h}, true
}

// ImageRead is the result of reading an image's pixel size. A non-nil Err means
// the image is unreadable; that is a reportable state, not a failure of the run.
type ImageRead struct {
	Size models.Size
	Err  error
}

// Readable reports whether the size was read
func (r ImageRead) Readable() bool {
	return r.Err == nil
}

// ReadSize decodes only the image header of path
func ReadSize(path string) ImageRead {
	f, err := os.Open(path)
	if err != nil {
		return ImageRead{Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return ImageRead{Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	return ImageRead{Size: models.Size{Width: cfg.Width, Height: cfg.Height}}
}

// Check is the size verdict for one (banner, locale) pair
type Check struct {
	Banner      models.BannerKey `json:"banner"`
	Locale      string           `json:"locale"`
	Declared    models.Size      `json:"declared"`
	HasDeclared bool             `json:"has_declared"`
	Expected    models.Size      `json:"expected"`  // Declared size times the scale
	Reference   models.Size      `json:"reference"` // Real size of the reference locale's file
	Actual      models.Size      `json:"actual"`
	Status      Status           `json:"status"`       // Against the configured basis
	ScaleStatus Status           `json:"scale_status"` // Declared-vs-real against Expected
	Error       string           `json:"error,omitempty"`
}

// Validator compares real image sizes
type Validator struct {
	Scale int
	Basis Basis
	read  func(path string) ImageRead
	log   zerolog.Logger
}

// NewValidator creates a validator. A non-positive scale falls back to DefaultScale.
func NewValidator(scale int, basis Basis) *Validator {
	if scale <= 0 {
		scale = DefaultScale
	}
	if basis == "" {
		basis = BasisReference
	}
	return &Validator{
		Scale: scale,
		Basis: basis,
		read:  ReadSize,
		log:   logger.WithComponent("dimension"),
	}
}

// Validate checks every (banner, locale) pair in banner-major order. Pairs whose
// file is missing are SKIPPED and never opened.
func (v *Validator) Validate(inv *inventory.Inventory, presence *reconcile.Result) []Check {
	checks := make([]Check, 0, len(inv.Banners)*len(inv.Locales))
	incorrect := 0

	for _, key := range inv.Banners {
		declared, hasDeclared := ParseDeclared(key)
		if !hasDeclared {
			v.log.Debug().Str("banner", string(key)).Msg("Banner name declares no size")
		}
		ref := v.read(inv.Files[inv.Reference][key])
		if !ref.Readable() {
			v.log.Warn().Err(ref.Err).Str("banner", string(key)).Msg("Reference image unreadable")
		}

		for _, locale := range inv.Locales {
			c := Check{
				Banner:      key,
				Locale:      locale,
				Declared:    declared,
				HasDeclared: hasDeclared,
				Reference:   ref.Size,
			}
			if hasDeclared {
				c.Expected = declared.Scale(v.Scale)
			}

			entry, ok := presence.Lookup(key, locale)
			if !ok || !entry.Found {
				c.Status, c.ScaleStatus = StatusSkipped, StatusSkipped
				checks = append(checks, c)
				continue
			}

			target := ref
			if locale != inv.Reference {
				target = v.read(entry.Path)
			}
			c.Actual = target.Size
			if !target.Readable() {
				c.Error = target.Err.Error()
				if locale != inv.Reference {
					v.log.Warn().Err(target.Err).Str("banner", string(key)).Str("locale", locale).Msg("Image unreadable")
				}
			}

			c.ScaleStatus = v.scaleStatus(c, target)
			c.Status = v.basisStatus(c, target, ref)
			if c.Status.Failed() {
				incorrect++
			}
			checks = append(checks, c)
		}
	}

	v.log.Info().
		Int("checks", len(checks)).
		Int("failed", incorrect).
		Int("scale", v.Scale).
		Str("basis", string(v.Basis)).
		Msg("Dimension validation completed")

	return checks
}

func (v *Validator) scaleStatus(c Check, target ImageRead) Status {
	switch {
	case !target.Readable():
		return StatusUnreadable
	case !c.HasDeclared:
		return StatusUndeclared
	case target.Size == c.Expected:
		return StatusCorrect
	default:
		return StatusIncorrect
	}
}

func (v *Validator) basisStatus(c Check, target, ref ImageRead) Status {
	if v.Basis == BasisDeclared {
		return v.scaleStatus(c, target)
	}
	switch {
	case !target.Readable():
		return StatusUnreadable
	case !ref.Readable():
		return StatusReferenceUnreadable
	case target.Size == ref.Size:
		return StatusCorrect
	default:
		return StatusIncorrect
	}
}

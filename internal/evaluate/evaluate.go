// Package evaluate decides PASS or FAIL for one (banner, locale) pair by
// checking that every expected translation appears in the extracted text.
package evaluate

import (
	"strings"

	"bannercheck/internal/textnorm"
	"bannercheck/pkg/models"
)

// Options selects the containment policy
type Options struct {
	// JoinFragments also accepts an expected string found in the concatenation
	// of fragment-shaped text, not only inside a single fragment.
	JoinFragments bool

	// FailEmptyExpected fails pairs whose expected translation is empty instead
	// of passing them with a warning.
	FailEmptyExpected bool
}

// Outcome is a verdict plus the non-fatal findings attached to it
type Outcome struct {
	Verdict  models.Verdict
	Warnings []string
}

// Evaluate checks expected against text. Both sides are normalized the same way
// the matcher normalizes. A block is searched as a whole; a fragment list is
// searched fragment by fragment.
func Evaluate(expected []string, text models.ExtractedText, opts Options) Outcome {
	if len(expected) == 0 {
		return Outcome{Verdict: models.Skipped(models.ReasonNoMatchingRow)}
	}

	units := text.Units()
	if opts.JoinFragments && text.Shape() == models.ShapeFragments && len(units) > 1 {
		units = append(units, strings.Join(units, " "))
	}

	var out Outcome
	var missing []string
	empty := 0
	for _, want := range expected {
		want = textnorm.Normalize(want)
		if want == "" {
			empty++
			continue
		}
		if !containedInAny(units, want) {
			missing = append(missing, want)
		}
	}

	if empty > 0 {
		out.Warnings = append(out.Warnings, models.ReasonEmptyExpected)
		if opts.FailEmptyExpected {
			missing = append(missing, "")
		}
	}

	if len(missing) > 0 {
		reason := models.ReasonMissingText
		if opts.FailEmptyExpected && len(missing) == 1 && missing[0] == "" {
			reason = models.ReasonEmptyExpected
		}
		out.Verdict = models.Verdict{Status: models.VerdictFail, Reason: reason, Missing: nonEmpty(missing)}
		return out
	}

	out.Verdict = models.Verdict{Status: models.VerdictPass}
	return out
}

func containedInAny(units []string, want string) bool {
	for _, u := range units {
		if textnorm.Contains(u, want) {
			return true
		}
	}
	return false
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

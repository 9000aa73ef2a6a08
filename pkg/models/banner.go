package models

import (
	"fmt"
	"path"
	"strings"
)

// BannerKey is the forward-slash relative path of a banner inside a locale folder,
// e.g. "campaign1/dark_728x90.jpg". The same key is expected under every locale.
type BannerKey string

// Name returns the file name part of the key
func (k BannerKey) Name() string {
	return path.Base(string(k))
}

// Size is a pixel width/height pair
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scale multiplies both dimensions by factor
func (s Size) Scale(factor int) Size {
	return Size{Width: s.Width * factor, Height: s.Height * factor}
}

// IsZero reports whether the size is unset
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

func (s Size) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// TranslationRow is one spreadsheet row keyed by lowercased locale column header.
// Absent cells read as "" through Value; the map never holds nil entries.
type TranslationRow struct {
	Sheet string            // Tab the row came from
	Row   int               // 1-based row number inside the tab
	Cells map[string]string // Column header (trimmed, lowercased) -> raw cell value
}

// Value returns the raw cell under the given locale column, or "" if the column is absent
func (r TranslationRow) Value(locale string) string {
	return r.Cells[strings.ToLower(strings.TrimSpace(locale))]
}

// Ref is a short human reference such as "Sheet1!5"
func (r TranslationRow) Ref() string {
	return fmt.Sprintf("%s!%d", r.Sheet, r.Row)
}

// TextShape tells how an extraction backend delivered its text
type TextShape int

const (
	ShapeBlock TextShape = iota
	ShapeFragments
)

// ExtractedText is either one line-broken block or a list of discrete fragments.
// The zero value is an empty block.
type ExtractedText struct {
	shape     TextShape
	block     string
	fragments []string
}

// Block wraps a single block of text
func Block(text string) ExtractedText {
	return ExtractedText{shape: ShapeBlock, block: text}
}

// Fragments wraps a list of discrete text fragments
func Fragments(parts ...string) ExtractedText {
	cp := make([]string, len(parts))
	copy(cp, parts)
	return ExtractedText{shape: ShapeFragments, fragments: cp}
}

// Shape returns how the text was delivered
func (t ExtractedText) Shape() TextShape {
	return t.shape
}

// Lines decomposes the text into candidate fragments: a block is split on line
// breaks, a fragment list is used as-is. Whitespace-only entries are dropped.
func (t ExtractedText) Lines() []string {
	var raw []string
	if t.shape == ShapeFragments {
		raw = t.fragments
	} else {
		raw = strings.FieldsFunc(t.block, func(r rune) bool { return r == '\n' || r == '\r' })
	}

	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Units returns the text as the evaluator compares it: a block is one unit,
// a fragment list yields one unit per fragment.
func (t ExtractedText) Units() []string {
	if t.shape == ShapeFragments {
		return t.Lines()
	}
	if strings.TrimSpace(t.block) == "" {
		return nil
	}
	return []string{t.block}
}

// String joins the text into a single display string
func (t ExtractedText) String() string {
	if t.shape == ShapeFragments {
		return strings.Join(t.fragments, "\n")
	}
	return t.block
}

// IsEmpty reports whether no non-blank text was extracted
func (t ExtractedText) IsEmpty() bool {
	return len(t.Lines()) == 0
}

// VerdictStatus is the outcome of a text check for one (banner, locale) pair
type VerdictStatus string

const (
	VerdictPass    VerdictStatus = "PASS"
	VerdictFail    VerdictStatus = "FAIL"
	VerdictSkipped VerdictStatus = "SKIPPED"
)

// Skip reasons carried by SKIPPED verdicts
const (
	ReasonFileNotFound  = "file not found"
	ReasonNoMatchingRow = "no matching spreadsheet row"
	ReasonTextCheckOff  = "text check disabled"
	ReasonMissingText   = "expected text not found"
	ReasonEmptyExpected = "empty expected translation"
)

// Verdict is the text-check result for one (banner, locale) pair
type Verdict struct {
	Status  VerdictStatus `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Missing []string      `json:"missing,omitempty"` // Expected strings not found in the extracted text
}

// Skipped builds a SKIPPED verdict with the given reason
func Skipped(reason string) Verdict {
	return Verdict{Status: VerdictSkipped, Reason: reason}
}

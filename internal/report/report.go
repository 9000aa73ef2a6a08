// Package report aggregates per-pair results into the final validation report
// and writes it as a table, CSV, JSON or an Excel workbook.
package report

import (
	"sort"
	"strings"
	"time"

	"bannercheck/internal/dimension"
	"bannercheck/pkg/models"
)

// Row is the outcome for one (banner, locale) pair
type Row struct {
	Banner        models.BannerKey `json:"banner"`
	Locale        string           `json:"locale"`
	Found         bool             `json:"found"`
	Declared      string           `json:"declared_size,omitempty"`
	Expected      string           `json:"expected_size,omitempty"`
	Reference     string           `json:"reference_size,omitempty"`
	Actual        string           `json:"actual_size,omitempty"`
	SizeStatus    dimension.Status `json:"size_status"`
	ScaleStatus   dimension.Status `json:"scale_status"`
	SizeError     string           `json:"size_error,omitempty"`
	ExpectedText  []string         `json:"expected_text,omitempty"`
	ExtractedText string           `json:"extracted_text,omitempty"`
	MatchedRows   []string         `json:"matched_rows,omitempty"`
	Verdict       models.Verdict   `json:"verdict"`
	Warnings      []string         `json:"warnings,omitempty"`
}

// Failed reports whether the pair fails any check: missing file, wrong size or missing text
func (r Row) Failed() bool {
	return !r.Found || r.SizeStatus.Failed() || r.Verdict.Status == models.VerdictFail
}

// Summary counts rows by outcome
type Summary struct {
	Banners       int `json:"banners"`
	Locales       int `json:"locales"`
	Pairs         int `json:"pairs"`
	Missing       int `json:"missing"`
	SizeCorrect   int `json:"size_correct"`
	SizeFailed    int `json:"size_failed"`
	Pass          int `json:"pass"`
	Fail          int `json:"fail"`
	Skipped       int `json:"skipped"`
	Unmatched     int `json:"unmatched_banners"`
	OCRFailures   int `json:"ocr_failures"`
	EmptyExpected int `json:"empty_expected"`
}

// Report is the result of one validation run
type Report struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Reference   string    `json:"reference_locale"`
	Locales     []string  `json:"locales"`
	Backend     string    `json:"backend,omitempty"`
	Scale       int       `json:"scale"`
	Basis       string    `json:"size_basis"`
	OCRFailures int       `json:"-"`
	Rows        []Row     `json:"rows"`
	Summary     Summary   `json:"summary"`
}

// Finalize sorts the rows by banner, then by locale in inventory order, and
// computes the summary. Completion order of the checks does not matter.
func (r *Report) Finalize() {
	rank := make(map[string]int, len(r.Locales))
	for i, l := range r.Locales {
		rank[l] = i
	}
	sort.SliceStable(r.Rows, func(i, j int) bool {
		a, b := r.Rows[i], r.Rows[j]
		if a.Banner != b.Banner {
			return a.Banner < b.Banner
		}
		ra, oka := rank[a.Locale]
		rb, okb := rank[b.Locale]
		if oka != okb {
			return oka
		}
		if ra != rb {
			return ra < rb
		}
		return a.Locale < b.Locale
	})

	s := Summary{Locales: len(r.Locales), Pairs: len(r.Rows), OCRFailures: r.OCRFailures}
	banners := make(map[models.BannerKey]bool)
	unmatched := make(map[models.BannerKey]bool)
	for _, row := range r.Rows {
		banners[row.Banner] = true
		if !row.Found {
			s.Missing++
		}
		switch {
		case row.SizeStatus == dimension.StatusCorrect:
			s.SizeCorrect++
		case row.SizeStatus.Failed():
			s.SizeFailed++
		}
		switch row.Verdict.Status {
		case models.VerdictPass:
			s.Pass++
		case models.VerdictFail:
			s.Fail++
		default:
			s.Skipped++
		}
		if row.Verdict.Reason == models.ReasonNoMatchingRow {
			unmatched[row.Banner] = true
		}
		for _, w := range row.Warnings {
			if w == models.ReasonEmptyExpected {
				s.EmptyExpected++
			}
		}
	}
	s.Banners = len(banners)
	s.Unmatched = len(unmatched)
	r.Summary = s
}

// HasFailures reports whether any pair failed a check
func (r *Report) HasFailures() bool {
	for _, row := range r.Rows {
		if row.Failed() {
			return true
		}
	}
	return false
}

// Header is the column order shared by the CSV, XLSX and Google Sheets outputs
var Header = []string{
	"Banner", "Locale", "Found", "Declared", "Expected", "Reference", "Actual",
	"Size Status", "Scale Status", "Expected Text", "Extracted Text", "Matched Rows",
	"Verdict", "Reason", "Warnings",
}

// Values flattens the row in Header order
func (r Row) Values() []string {
	reason := r.Verdict.Reason
	if len(r.Verdict.Missing) > 0 {
		reason += ": " + strings.Join(r.Verdict.Missing, "; ")
	}
	if r.SizeError != "" {
		if reason != "" {
			reason += "; "
		}
		reason += r.SizeError
	}
	return []string{
		string(r.Banner),
		r.Locale,
		foundLabel(r.Found),
		r.Declared,
		r.Expected,
		r.Reference,
		r.Actual,
		string(r.SizeStatus),
		string(r.ScaleStatus),
		strings.Join(r.ExpectedText, " | "),
		strings.ReplaceAll(r.ExtractedText, "\n", " | "),
		strings.Join(r.MatchedRows, ", "),
		string(r.Verdict.Status),
		reason,
		strings.Join(r.Warnings, "; "),
	}
}

// SheetRows returns the rows as Google Sheets values
func (r *Report) SheetRows() [][]interface{} {
	out := make([][]interface{}, len(r.Rows))
	for i, row := range r.Rows {
		values := row.Values()
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func foundLabel(found bool) string {
	if found {
		return "FOUND"
	}
	return "MISSING"
}

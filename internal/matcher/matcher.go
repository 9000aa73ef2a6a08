// Package matcher links a banner to spreadsheet rows using only the text
// extracted from its reference-locale image.
//
// Every fragment of the reference text is scored against every row: the score
// is the largest token overlap between the fragment and any one cell of the row.
// The best row per fragment wins. Ties go to the row met first in spreadsheet
// order; that order carries no meaning, it only makes the result deterministic.
package matcher

import (
	"github.com/rs/zerolog"

	"bannercheck/internal/logger"
	"bannercheck/internal/textnorm"
	"bannercheck/pkg/models"
)

// Candidate is a row scored against one fragment
type Candidate struct {
	Row   models.TranslationRow
	Index int // position of the row in spreadsheet order
	Score int // shared normalized tokens
}

// FragmentMatch is the best row for one reference fragment
type FragmentMatch struct {
	Fragment string
	Best     Candidate
}

// Result is the outcome of matching one banner
type Result struct {
	Fragments []FragmentMatch
	Rows      []models.TranslationRow // matched rows, deduplicated, in first-match order
}

// Matched reports whether any fragment found a row
func (r Result) Matched() bool {
	return len(r.Rows) > 0
}

// Expected returns the normalized expected strings for locale, one per matched row.
// A row without that locale column contributes "".
func (r Result) Expected(locale string) []string {
	out := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = textnorm.Normalize(row.Value(locale))
	}
	return out
}

// Refs returns the sheet references of the matched rows
func (r Result) Refs() []string {
	refs := make([]string, len(r.Rows))
	for i, row := range r.Rows {
		refs[i] = row.Ref()
	}
	return refs
}

type indexedRow struct {
	row   models.TranslationRow
	cells []map[string]struct{}
}

// Matcher holds the pooled spreadsheet rows with their cells pre-tokenized.
// It is read-only after New and safe for concurrent use.
type Matcher struct {
	rows []indexedRow
	log  zerolog.Logger
}

// New indexes rows in the given order
func New(rows []models.TranslationRow) *Matcher {
	m := &Matcher{
		rows: make([]indexedRow, 0, len(rows)),
		log:  logger.WithComponent("matcher"),
	}
	for _, row := range rows {
		ir := indexedRow{row: row}
		for _, value := range row.Cells {
			if tokens := textnorm.Tokens(value); len(tokens) > 0 {
				ir.cells = append(ir.cells, tokens)
			}
		}
		m.rows = append(m.rows, ir)
	}
	return m
}

// Len returns the number of indexed rows
func (m *Matcher) Len() int {
	return len(m.rows)
}

// Candidates scores every row against one fragment and returns those with a
// non-zero score, in spreadsheet order.
func (m *Matcher) Candidates(fragment string) []Candidate {
	tokens := textnorm.Tokens(fragment)
	if len(tokens) == 0 {
		return nil
	}

	var out []Candidate
	for i, ir := range m.rows {
		if score := rowScore(tokens, ir.cells); score > 0 {
			out = append(out, Candidate{Row: ir.row, Index: i, Score: score})
		}
	}
	return out
}

// Match decomposes the reference text into fragments and picks the best row for each.
func (m *Matcher) Match(reference models.ExtractedText) Result {
	var res Result
	seen := make(map[int]bool)

	for _, fragment := range reference.Lines() {
		best, ok := m.best(fragment)
		if !ok {
			m.log.Debug().Str("fragment", fragment).Msg("No candidate row for fragment")
			continue
		}
		res.Fragments = append(res.Fragments, FragmentMatch{Fragment: fragment, Best: best})
		if !seen[best.Index] {
			seen[best.Index] = true
			res.Rows = append(res.Rows, best.Row)
		}
	}
	return res
}

func (m *Matcher) best(fragment string) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, c := range m.Candidates(fragment) {
		// strictly greater keeps the earliest row on ties
		if !found || c.Score > best.Score {
			best, found = c, true
		}
	}
	return best, found
}

func rowScore(fragment map[string]struct{}, cells []map[string]struct{}) int {
	best := 0
	for _, cell := range cells {
		if n := textnorm.Overlap(fragment, cell); n > best {
			best = n
		}
	}
	return best
}

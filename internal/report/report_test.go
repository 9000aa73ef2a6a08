package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bannercheck/internal/dimension"
	"bannercheck/pkg/models"
)

func sampleReport() *Report {
	r := &Report{
		RunID:     "run-1",
		Reference: "en",
		Locales:   []string{"en", "fr", "de"},
		Backend:   "vision",
		Scale:     2,
		Basis:     "reference",
		Rows: []Row{
			{Banner: "b_100x50.png", Locale: "de", Found: false, SizeStatus: dimension.StatusSkipped, ScaleStatus: dimension.StatusSkipped,
				Verdict: models.Skipped(models.ReasonFileNotFound)},
			{Banner: "b_100x50.png", Locale: "fr", Found: true, Actual: "200x100", SizeStatus: dimension.StatusCorrect, ScaleStatus: dimension.StatusCorrect,
				ExpectedText: []string{"vente"}, ExtractedText: "Vente", MatchedRows: []string{"Sheet1!2"},
				Verdict: models.Verdict{Status: models.VerdictPass}},
			{Banner: "a.png", Locale: "fr", Found: true, Actual: "10x10", SizeStatus: dimension.StatusIncorrect, ScaleStatus: dimension.StatusUndeclared,
				Verdict: models.Skipped(models.ReasonNoMatchingRow)},
			{Banner: "b_100x50.png", Locale: "en", Found: true, Actual: "200x100", SizeStatus: dimension.StatusCorrect, ScaleStatus: dimension.StatusCorrect,
				ExpectedText: []string{""}, ExtractedText: "Sale\nNow", Verdict: models.Verdict{Status: models.VerdictPass},
				Warnings: []string{models.ReasonEmptyExpected}},
			{Banner: "a.png", Locale: "en", Found: true, Actual: "20x20", SizeStatus: dimension.StatusCorrect, ScaleStatus: dimension.StatusUndeclared,
				Verdict: models.Skipped(models.ReasonNoMatchingRow)},
		},
	}
	r.Finalize()
	return r
}

func TestFinalize_OrderAndSummary(t *testing.T) {
	r := sampleReport()

	var order []string
	for _, row := range r.Rows {
		order = append(order, string(row.Banner)+"/"+row.Locale)
	}
	assert.Equal(t, []string{"a.png/en", "a.png/fr", "b_100x50.png/en", "b_100x50.png/fr", "b_100x50.png/de"}, order)

	s := r.Summary
	assert.Equal(t, 2, s.Banners)
	assert.Equal(t, 5, s.Pairs)
	assert.Equal(t, 1, s.Missing)
	assert.Equal(t, 3, s.SizeCorrect)
	assert.Equal(t, 1, s.SizeFailed)
	assert.Equal(t, 2, s.Pass)
	assert.Equal(t, 0, s.Fail)
	assert.Equal(t, 3, s.Skipped)
	assert.Equal(t, 1, s.Unmatched)
	assert.Equal(t, 1, s.EmptyExpected)
	assert.True(t, r.HasFailures())
}

func TestHasFailures(t *testing.T) {
	r := &Report{Rows: []Row{{Found: true, SizeStatus: dimension.StatusCorrect, Verdict: models.Verdict{Status: models.VerdictPass}}}}
	assert.False(t, r.HasFailures())
	r.Rows = append(r.Rows, Row{Found: true, SizeStatus: dimension.StatusCorrect, Verdict: models.Verdict{Status: models.VerdictFail}})
	assert.True(t, r.HasFailures())
}

func TestRowValues(t *testing.T) {
	row := Row{
		Banner: "b.png", Locale: "fr", Found: true,
		ExpectedText:  []string{"vente", "acheter"},
		ExtractedText: "Vente\nPromo",
		Verdict:       models.Verdict{Status: models.VerdictFail, Reason: models.ReasonMissingText, Missing: []string{"acheter"}},
	}
	v := row.Values()
	require.Len(t, v, len(Header))
	assert.Equal(t, "FOUND", v[2])
	assert.Equal(t, "vente | acheter", v[9])
	assert.Equal(t, "Vente | Promo", v[10])
	assert.Equal(t, "FAIL", v[12])
	assert.Equal(t, "expected text not found: acheter", v[13])
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, FormatCSV))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, []string{"b_100x50.png", "de", "MISSING"}, records[5][:3])
	assert.Equal(t, "file not found", records[5][13])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, FormatJSON))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.Rows, 5)
	assert.Equal(t, 2, decoded.Summary.Pass)
	assert.Equal(t, models.VerdictSkipped, decoded.Rows[4].Verdict.Status)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, FormatTable))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "BANNER"))
	assert.Contains(t, out, "no matching spreadsheet row")
	assert.Contains(t, out, "2 banners x 3 locales: 2 pass, 0 fail, 3 skipped; 1 missing files, 1 size failures, 1 unmatched banners")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().Write(&buf, FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Results", "Summary"}, f.GetSheetList())
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Banner", rows[0][0])
	assert.Equal(t, "a.png", rows[1][0])

	v, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "run-1", v)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)
	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestSheetRows(t *testing.T) {
	rows := sampleReport().SheetRows()
	require.Len(t, rows, 5)
	assert.Len(t, rows[0], len(Header))
	assert.Equal(t, "a.png", rows[0][0])
}

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bannercheck/pkg/models"
)

func row(sheet string, n int, cells map[string]string) models.TranslationRow {
	return models.TranslationRow{Sheet: sheet, Row: n, Cells: cells}
}

func testRows() []models.TranslationRow {
	return []models.TranslationRow{
		row("Copy", 2, map[string]string{"en": "Summer Sale", "fr": "Soldes d'été", "de": "Sommerschlussverkauf"}),
		row("Copy", 3, map[string]string{"en": "Buy now", "fr": "Acheter maintenant", "de": "Jetzt kaufen"}),
		row("Copy", 4, map[string]string{"en": "Sale ends soon", "fr": "Fin des soldes bientôt"}),
		row("Legal", 2, map[string]string{"en": "Terms apply", "fr": ""}),
	}
}

func TestMatch_BlockSplitIntoLines(t *testing.T) {
	m := New(testRows())
	res := m.Match(models.Block("SUMMER SALE\n\n  Buy   Now \n"))

	require.True(t, res.Matched())
	require.Len(t, res.Fragments, 2)
	assert.Equal(t, []string{"Copy!2", "Copy!3"}, res.Refs())
	assert.Equal(t, 2, res.Fragments[0].Best.Score)
	assert.Equal(t, []string{"soldes d'été", "acheter maintenant"}, res.Expected("fr"))
	assert.Equal(t, []string{"sommerschlussverkauf", "jetzt kaufen"}, res.Expected("DE"))
}

func TestMatch_FragmentsUsedAsIs(t *testing.T) {
	m := New(testRows())
	res := m.Match(models.Fragments("Terms apply", " ", "Sale ends soon"))

	assert.Equal(t, []string{"Legal!2", "Copy!4"}, res.Refs())
	// blank cell and absent column both read as nothing required
	assert.Equal(t, []string{"", "fin des soldes bientôt"}, res.Expected("fr"))
	assert.Equal(t, []string{"", ""}, res.Expected("it"))
}

func TestMatch_HighestScoreWins(t *testing.T) {
	m := New(testRows())
	// "sale" is in rows 2 and 4, "ends soon" only in row 4
	res := m.Match(models.Block("sale ends soon"))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 4, res.Rows[0].Row)
	assert.Equal(t, 3, res.Fragments[0].Best.Score)
}

func TestMatch_TieGoesToFirstRow(t *testing.T) {
	m := New(testRows())
	res := m.Match(models.Block("sale"))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Copy!2", res.Rows[0].Ref())
}

func TestMatch_ScoresAnyCell(t *testing.T) {
	m := New(testRows())
	res := m.Match(models.Block("Jetzt kaufen"))
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Copy!3", res.Rows[0].Ref())
}

func TestMatch_DeduplicatesRows(t *testing.T) {
	m := New(testRows())
	res := m.Match(models.Fragments("Buy", "now"))
	assert.Len(t, res.Fragments, 2)
	assert.Len(t, res.Rows, 1)
}

func TestMatch_NoCandidate(t *testing.T) {
	m := New(testRows())
	assert.False(t, m.Match(models.Block("Gift cards")).Matched())
	assert.False(t, m.Match(models.Block("")).Matched())
	assert.False(t, New(nil).Match(models.Block("sale")).Matched())
}

func TestMatch_Deterministic(t *testing.T) {
	m := New(testRows())
	text := models.Block("summer sale\nbuy now\nterms apply")
	first := m.Match(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, m.Match(text))
	}
}

func TestCandidates(t *testing.T) {
	m := New(testRows())
	got := m.Candidates("Sale")
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
	assert.Empty(t, m.Candidates("   "))
}

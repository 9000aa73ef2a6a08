package pipeline

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bannercheck/internal/dimension"
	"bannercheck/internal/evaluate"
	"bannercheck/internal/inventory"
	"bannercheck/internal/ocr"
	"bannercheck/internal/report"
	"bannercheck/pkg/models"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

// fakeExtractor answers by "<locale>/<file name>"
type fakeExtractor struct {
	mu     sync.Mutex
	texts  map[string]models.ExtractedText
	failed map[string]bool
	calls  []string

	rejectAll bool
}

func (f *fakeExtractor) Backend() string { return "fake" }

func (f *fakeExtractor) ExtractFile(_ context.Context, path, locale string) ocr.Result {
	id := locale + "/" + filepath.Base(path)
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if f.rejectAll {
		err := ocr.NewOCRError("ExtractText", ocr.ErrMissingCredentials, "401 invalid api key")
		return ocr.Result{Failed: true, Reason: err.Error(), Err: err, Attempts: 1}
	}
	if f.failed[id] {
		err := ocr.NewOCRError("ExtractText", ocr.ErrRateLimited, "quota exhausted")
		return ocr.Result{Failed: true, Reason: "quota exhausted", Err: err, Attempts: 4}
	}
	return ocr.Result{Text: f.texts[id], Attempts: 1}
}

// rejectingBackend fails every call the way a backend with a revoked key does
type rejectingBackend struct {
	calls atomic.Int32
}

func (b *rejectingBackend) Name() string { return "rejecting" }

func (b *rejectingBackend) ExtractText(context.Context, ocr.Request) (models.ExtractedText, error) {
	b.calls.Add(1)
	return models.ExtractedText{}, ocr.NewOCRError("ExtractText", ocr.ErrMissingCredentials, "401 invalid api key")
}

func (f *fakeExtractor) sortedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

func build(t *testing.T, root string) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.Build(root, inventory.Options{ReferenceLocale: "en"})
	require.NoError(t, err)
	return inv
}

func findRow(t *testing.T, rep *report.Report, banner, locale string) report.Row {
	t.Helper()
	for _, r := range rep.Rows {
		if string(r.Banner) == banner && r.Locale == locale {
			return r
		}
	}
	t.Fatalf("no report row for %s/%s", banner, locale)
	return report.Row{}
}

var defaultOpts = Options{Scale: 2, Basis: dimension.BasisReference, Concurrency: 3}

func TestRun_EndToEnd(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "banner_100x50.png"), 200, 100)
	writePNG(t, filepath.Join(root, "fr", "banner_100x50.png"), 200, 100)

	ext := &fakeExtractor{texts: map[string]models.ExtractedText{
		"en/banner_100x50.png": models.Block("Sale"),
		"fr/banner_100x50.png": models.Block("Vente"),
	}}
	rows := []models.TranslationRow{{Sheet: "Sheet1", Row: 2, Cells: map[string]string{"en": "Sale", "fr": "Vente"}}}

	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext, RunID: "run-42"}, defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, "run-42", rep.RunID)
	assert.Equal(t, "fake", rep.Backend)
	require.Len(t, rep.Rows, 2)

	for _, locale := range []string{"en", "fr"} {
		row := findRow(t, rep, "banner_100x50.png", locale)
		assert.True(t, row.Found, locale)
		assert.Equal(t, dimension.StatusCorrect, row.SizeStatus, locale)
		assert.Equal(t, dimension.StatusCorrect, row.ScaleStatus, locale)
		assert.Equal(t, "200x100", row.Actual, locale)
		assert.Equal(t, []string{"Sheet1!2"}, row.MatchedRows, locale)
		assert.Equal(t, models.VerdictPass, row.Verdict.Status, locale)
	}
	assert.Equal(t, []string{"vente"}, findRow(t, rep, "banner_100x50.png", "fr").ExpectedText)
	assert.False(t, rep.HasFailures())
}

func TestRun_MissingTargetFile(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "banner_100x50.png"), 200, 100)
	writePNG(t, filepath.Join(root, "en", "other_10x10.png"), 20, 20)
	writePNG(t, filepath.Join(root, "fr", "other_10x10.png"), 20, 20)

	ext := &fakeExtractor{texts: map[string]models.ExtractedText{
		"en/banner_100x50.png": models.Block("Sale"),
		"en/other_10x10.png":   models.Block("Sale"),
		"fr/other_10x10.png":   models.Block("Vente"),
	}}
	rows := []models.TranslationRow{{Sheet: "S", Row: 2, Cells: map[string]string{"en": "Sale", "fr": "Vente"}}}

	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext}, defaultOpts)
	require.NoError(t, err)
	require.Len(t, rep.Rows, 4)

	row := findRow(t, rep, "banner_100x50.png", "fr")
	assert.False(t, row.Found)
	assert.Equal(t, dimension.StatusSkipped, row.SizeStatus)
	assert.Equal(t, models.VerdictSkipped, row.Verdict.Status)
	assert.Equal(t, models.ReasonFileNotFound, row.Verdict.Reason)
	assert.Empty(t, row.ExtractedText)

	assert.NotContains(t, ext.sortedCalls(), "fr/banner_100x50.png")
	assert.Equal(t, 1, rep.Summary.Missing)
	assert.True(t, rep.HasFailures())
}

func TestRun_EmptyCellPassesWithWarning(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "b_1x1.png"), 2, 2)
	writePNG(t, filepath.Join(root, "de", "b_1x1.png"), 2, 2)

	ext := &fakeExtractor{texts: map[string]models.ExtractedText{
		"en/b_1x1.png": models.Block("Sale"),
		"de/b_1x1.png": models.Block("Something else entirely"),
	}}
	rows := []models.TranslationRow{{Sheet: "S", Row: 2, Cells: map[string]string{"en": "Sale", "de": ""}}}

	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext}, defaultOpts)
	require.NoError(t, err)
	row := findRow(t, rep, "b_1x1.png", "de")
	assert.Equal(t, models.VerdictPass, row.Verdict.Status)
	assert.Contains(t, row.Warnings, models.ReasonEmptyExpected)

	opts := defaultOpts
	opts.Evaluate = evaluate.Options{FailEmptyExpected: true}
	rep, err = Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext}, opts)
	require.NoError(t, err)
	assert.Equal(t, models.VerdictFail, findRow(t, rep, "b_1x1.png", "de").Verdict.Status)
}

func TestRun_UnmatchedBannerSkipsTargetExtraction(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "promo.png"), 10, 10)
	writePNG(t, filepath.Join(root, "fr", "promo.png"), 12, 10)

	ext := &fakeExtractor{texts: map[string]models.ExtractedText{
		"en/promo.png": models.Block("Gift cards"),
	}}
	rows := []models.TranslationRow{{Sheet: "S", Row: 2, Cells: map[string]string{"en": "Sale", "fr": "Vente"}}}

	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext}, defaultOpts)
	require.NoError(t, err)

	assert.Equal(t, []string{"en/promo.png"}, ext.sortedCalls())
	for _, locale := range []string{"en", "fr"} {
		row := findRow(t, rep, "promo.png", locale)
		assert.Equal(t, models.ReasonNoMatchingRow, row.Verdict.Reason)
	}
	fr := findRow(t, rep, "promo.png", "fr")
	assert.Equal(t, dimension.StatusIncorrect, fr.SizeStatus)
	assert.Equal(t, dimension.StatusUndeclared, fr.ScaleStatus)
	assert.Equal(t, 1, rep.Summary.Unmatched)
}

func TestRun_ExtractionFailureFailsPair(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "b.png"), 4, 4)
	writePNG(t, filepath.Join(root, "fr", "b.png"), 4, 4)

	ext := &fakeExtractor{
		texts:  map[string]models.ExtractedText{"en/b.png": models.Fragments("Sale")},
		failed: map[string]bool{"fr/b.png": true},
	}
	rows := []models.TranslationRow{{Sheet: "S", Row: 2, Cells: map[string]string{"en": "Sale", "fr": "Vente"}}}

	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext}, defaultOpts)
	require.NoError(t, err)

	row := findRow(t, rep, "b.png", "fr")
	assert.Equal(t, models.VerdictFail, row.Verdict.Status)
	assert.Equal(t, []string{"vente"}, row.Verdict.Missing)
	assert.Contains(t, row.Warnings, "text extraction failed: quota exhausted")
	assert.Equal(t, 1, rep.Summary.OCRFailures)
}

func TestRun_RejectedCredentialsAbortRun(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "b.png"), 4, 4)
	writePNG(t, filepath.Join(root, "fr", "b.png"), 4, 4)

	ext := &fakeExtractor{rejectAll: true}
	rows := []models.TranslationRow{{Sheet: "S", Row: 2, Cells: map[string]string{"en": "Sale", "fr": "Vente"}}}

	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Rows: rows, Extractor: ext}, defaultOpts)
	require.ErrorIs(t, err, ocr.ErrMissingCredentials)
	assert.Nil(t, rep)
	assert.Equal(t, []string{"en/b.png"}, ext.sortedCalls())
}

func TestRun_RejectedCredentialsThroughAdapter(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "b.png"), 4, 4)
	writePNG(t, filepath.Join(root, "fr", "b.png"), 4, 4)

	backend := &rejectingBackend{}
	adapter := ocr.NewAdapter(backend, ocr.AdapterConfig{Timeout: time.Second, MaxRetries: 2, Backoff: time.Millisecond})

	_, err := Run(context.Background(), Input{Inventory: build(t, root), Extractor: adapter}, defaultOpts)
	require.ErrorIs(t, err, ocr.ErrMissingCredentials)
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestRun_TextCheckDisabled(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "EN", "b_5x5.png"), 10, 10)
	writePNG(t, filepath.Join(root, "fr", "b_5x5.png"), 10, 11)

	opts := defaultOpts
	opts.SkipText = true
	ext := &fakeExtractor{}
	rep, err := Run(context.Background(), Input{Inventory: build(t, root), Extractor: ext}, opts)
	require.NoError(t, err)

	assert.Empty(t, ext.sortedCalls())
	fr := findRow(t, rep, "b_5x5.png", "fr")
	assert.Equal(t, models.ReasonTextCheckOff, fr.Verdict.Reason)
	assert.Equal(t, dimension.StatusIncorrect, fr.SizeStatus)
	assert.Equal(t, dimension.StatusIncorrect, fr.ScaleStatus)
	assert.Equal(t, "10x10", fr.Expected)
}

func TestRun_Canceled(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "en", "b.png"), 4, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Input{Inventory: build(t, root), Extractor: &fakeExtractor{}}, defaultOpts)
	assert.ErrorIs(t, err, context.Canceled)
}

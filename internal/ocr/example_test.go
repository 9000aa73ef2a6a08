package ocr_test

import (
	"context"
	"fmt"
	"time"

	"bannercheck/internal/ocr"
	"bannercheck/pkg/models"
)

// staticExtractor stands in for a real backend.
type staticExtractor struct{}

func (staticExtractor) Name() string { return "static" }

func (staticExtractor) ExtractText(_ context.Context, req ocr.Request) (models.ExtractedText, error) {
	if req.Locale == "fr" {
		return models.Fragments("Soldes d'été", "Acheter"), nil
	}
	return models.Block("Summer Sale\nBuy now"), nil
}

// Example demonstrates wrapping a backend in the adapter.
func Example() {
	adapter := ocr.NewAdapter(staticExtractor{}, ocr.AdapterConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	})

	for _, locale := range []string{"en", "fr"} {
		res := adapter.Extract(context.Background(), ocr.Request{
			Image:    []byte{0x89, 'P', 'N', 'G'},
			MIMEType: "image/png",
			Locale:   locale,
		})
		fmt.Printf("%s: failed=%v lines=%q\n", locale, res.Failed, res.Text.Lines())
	}
	// Output:
	// en: failed=false lines=["Summer Sale" "Buy now"]
	// fr: failed=false lines=["Soldes d'été" "Acheter"]
}

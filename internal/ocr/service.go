// Package ocr extracts on-image text from banner files.
//
// Three backends implement TextExtractor:
//   - vision: Google Cloud Vision TEXT_DETECTION, returns one line-broken block
//   - documentai: a Google Document AI OCR processor, returns one block
//   - openai: an OpenAI vision model prompted for a JSON list of text fragments
//
// Backends return errors. The Adapter wraps a backend with a per-call timeout,
// rate limiting and bounded retry, and never returns an error: failures become
// an empty Result carrying the reason.
//
// Required Environment Variables (by backend):
//   - vision, documentai: GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS
//   - documentai: GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION, DOCUMENT_AI_PROCESSOR_ID
//   - openai: OPENAI_API_KEY
package ocr

import (
	"context"
	"fmt"
	"strings"

	"bannercheck/pkg/models"
)

// MaxImageSizeBytes is the largest image sent inline to a backend (20MB)
const MaxImageSizeBytes = 20 * 1024 * 1024

// Request is one image to extract text from
type Request struct {
	Image    []byte
	MIMEType string
	Locale   string // Locale folder the image came from, used as a hint only
}

// TextExtractor defines the interface for text extraction backends.
type TextExtractor interface {
	// ExtractText returns the text found on the image. An image without text
	// yields empty text and no error.
	ExtractText(ctx context.Context, req Request) (models.ExtractedText, error)

	// Name identifies the backend in logs and reports.
	Name() string
}

// Backend names a TextExtractor implementation
type Backend string

const (
	BackendVision     Backend = "vision"
	BackendDocumentAI Backend = "documentai"
	BackendOpenAI     Backend = "openai"
)

// ParseBackend validates a backend name
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendVision, BackendDocumentAI, BackendOpenAI:
		return b, nil
	case "":
		return BackendVision, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// BackendConfig selects and configures a backend
type BackendConfig struct {
	Backend      Backend
	DocumentAI   DocumentAIConfig
	OpenAIAPIKey string
	OpenAIModel  string
}

// NewExtractor creates the configured backend
func NewExtractor(ctx context.Context, cfg BackendConfig) (TextExtractor, error) {
	switch cfg.Backend {
	case BackendVision, "":
		return NewGoogleVisionExtractor(ctx)
	case BackendDocumentAI:
		return NewDocumentAIExtractor(ctx, cfg.DocumentAI)
	case BackendOpenAI:
		return NewOpenAIVisionExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		return nil, NewOCRError("NewExtractor", ErrUnknownBackend, string(cfg.Backend))
	}
}

func validateRequest(op string, req Request) error {
	if len(req.Image) == 0 {
		return NewOCRError(op, ErrEmptyImage, "")
	}
	if len(req.Image) > MaxImageSizeBytes {
		return NewOCRError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(req.Image)))
	}
	return nil
}

package ocr

import (
	"context"
	"fmt"
	"os"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"bannercheck/pkg/models"
)

// DocumentAIConfig holds configuration for a Document AI OCR processor.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the ID of an OCR (Document OCR) processor.
	ProcessorID string

	// ProcessorVersion pins a processor version. Empty uses the default version.
	ProcessorVersion string
}

// ProcessorName returns the fully qualified resource name of the processor.
func (c DocumentAIConfig) ProcessorName() string {
	if c.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			c.ProjectID, c.Location, c.ProcessorID, c.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIExtractor implements TextExtractor using a Google Document AI OCR processor.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
}

// NewDocumentAIExtractor creates a Document AI backend with credentials from environment.
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if config.ProjectID == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption

	// Regional endpoint for non-US processors
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapOCRError(op, ErrMissingCredentials, fmt.Sprintf("failed to create Document AI client for location %s: %v", config.Location, err))
	}

	return &DocumentAIExtractor{client: client, config: config}, nil
}

// Name implements TextExtractor.
func (d *DocumentAIExtractor) Name() string {
	return string(BackendDocumentAI)
}

// ExtractText sends the raw image to the OCR processor and returns the document text as one block.
func (d *DocumentAIExtractor) ExtractText(ctx context.Context, req Request) (models.ExtractedText, error) {
	const op = "ExtractText"

	if err := validateRequest(op, req); err != nil {
		return models.ExtractedText{}, err
	}

	resp, err := d.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: d.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  req.Image,
				MimeType: req.MIMEType,
			},
		},
	})
	if err != nil {
		return models.ExtractedText{}, classifyGRPC(op, err)
	}
	if resp.Document == nil {
		return models.ExtractedText{}, NewOCRError(op, ErrExtractionFailed, "no document in response")
	}

	return models.Block(resp.Document.Text), nil
}

// Close closes the underlying Document AI client.
func (d *DocumentAIExtractor) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

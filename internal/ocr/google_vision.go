package ocr

import (
	"context"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"bannercheck/pkg/models"
)

// GoogleVisionExtractor implements TextExtractor using Google Cloud Vision API.
type GoogleVisionExtractor struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionExtractor creates a Vision backend with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewGoogleVisionExtractor(ctx context.Context) (*GoogleVisionExtractor, error) {
	const op = "NewGoogleVisionExtractor"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Application default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionExtractor{client: client}, nil
}

// NewGoogleVisionExtractorWithClient creates a Vision backend with an explicit client.
func NewGoogleVisionExtractorWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionExtractor {
	return &GoogleVisionExtractor{client: client}
}

// Name implements TextExtractor.
func (g *GoogleVisionExtractor) Name() string {
	return string(BackendVision)
}

// ExtractText runs TEXT_DETECTION on the image and returns the full text as one block.
func (g *GoogleVisionExtractor) ExtractText(ctx context.Context, req Request) (models.ExtractedText, error) {
	const op = "ExtractText"

	if err := validateRequest(op, req); err != nil {
		return models.ExtractedText{}, err
	}

	resp, err := g.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: req.Image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_TEXT_DETECTION},
				},
			},
		},
	})
	if err != nil {
		return models.ExtractedText{}, classifyGRPC(op, err)
	}

	if len(resp.Responses) == 0 {
		return models.ExtractedText{}, NewOCRError(op, ErrExtractionFailed, "no response from Vision API")
	}

	imgResp := resp.Responses[0]
	if imgResp.Error != nil {
		return models.ExtractedText{}, NewOCRError(op, classifyCode(codes.Code(imgResp.Error.Code)), imgResp.Error.Message)
	}

	return models.Block(visionText(imgResp)), nil
}

// visionText prefers the structured full text and falls back to the first
// text annotation, which Vision fills with the whole detected text.
func visionText(resp *visionpb.AnnotateImageResponse) string {
	if resp.FullTextAnnotation != nil && resp.FullTextAnnotation.Text != "" {
		return resp.FullTextAnnotation.Text
	}
	if len(resp.TextAnnotations) > 0 {
		return resp.TextAnnotations[0].Description
	}
	return ""
}

// Close closes the underlying Vision client.
func (g *GoogleVisionExtractor) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"bannercheck/pkg/models"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "gpt-4o"

const openAISystemPrompt = `You transcribe the text printed on advertising banners.
Return every separately placed piece of text (headline, sub-line, button label, legal line) as one fragment, in reading order.
Copy the text exactly as printed, keep accents and punctuation, do not translate or correct it.
Answer with JSON only: {"fragments": ["...", "..."]}. If the banner has no text, answer {"fragments": []}.`

// OpenAIVisionExtractor implements TextExtractor with an OpenAI vision model.
// It returns text as a list of fragments.
type OpenAIVisionExtractor struct {
	client *openai.Client
	model  string
}

// NewOpenAIVisionExtractor creates an OpenAI backend
func NewOpenAIVisionExtractor(apiKey, model string) (*OpenAIVisionExtractor, error) {
	const op = "NewOpenAIVisionExtractor"

	if apiKey == "" {
		return nil, NewOCRError(op, ErrMissingCredentials, "OPENAI_API_KEY is required")
	}
	return NewOpenAIVisionExtractorWithClient(openai.NewClient(apiKey), model), nil
}

// NewOpenAIVisionExtractorWithClient creates an OpenAI backend with an explicit client.
func NewOpenAIVisionExtractorWithClient(client *openai.Client, model string) *OpenAIVisionExtractor {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIVisionExtractor{client: client, model: model}
}

// Name implements TextExtractor.
func (o *OpenAIVisionExtractor) Name() string {
	return string(BackendOpenAI)
}

// ExtractText asks the model for the banner's text fragments.
func (o *OpenAIVisionExtractor) ExtractText(ctx context.Context, req Request) (models.ExtractedText, error) {
	const op = "ExtractText"

	if err := validateRequest(op, req); err != nil {
		return models.ExtractedText{}, err
	}

	userText := "Transcribe the text on this banner."
	if req.Locale != "" {
		userText = fmt.Sprintf("Transcribe the text on this banner. The banner is localized for %q.", req.Locale)
	}
	dataURL := "data:" + req.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(req.Image)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: 0.1,
		MaxTokens:   1000,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: openAISystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: userText},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return models.ExtractedText{}, classifyOpenAI(op, err)
	}
	if len(resp.Choices) == 0 {
		return models.ExtractedText{}, NewOCRError(op, ErrTransient, "no response choices from OpenAI")
	}

	fragments, err := parseFragments(resp.Choices[0].Message.Content)
	if err != nil {
		// Malformed model output counts as transient
		return models.ExtractedText{}, NewOCRError(op, ErrTransient, err.Error())
	}
	return models.Fragments(fragments...), nil
}

// parseFragments decodes the model's {"fragments": [...]} answer, tolerating a markdown code fence.
func parseFragments(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var answer struct {
		Fragments []string `json:"fragments"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse fragment list: %w", err)
	}
	return answer.Fragments, nil
}

// classifyOpenAI converts an OpenAI client error into an OCRError
func classifyOpenAI(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return WrapOCRError(op, err, "call canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewOCRError(op, ErrTransient, "call timed out")
	}

	statusCode := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		statusCode = reqErr.HTTPStatusCode
	default:
		// No HTTP status: the request never got an answer.
		return NewOCRError(op, ErrTransient, err.Error())
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return NewOCRError(op, ErrRateLimited, err.Error())
	case statusCode >= http.StatusInternalServerError, statusCode == http.StatusRequestTimeout:
		return NewOCRError(op, ErrTransient, err.Error())
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return NewOCRError(op, ErrMissingCredentials, err.Error())
	case statusCode == http.StatusBadRequest:
		return NewOCRError(op, ErrUnsupportedFormat, err.Error())
	default:
		return NewOCRError(op, ErrExtractionFailed, err.Error())
	}
}

package ocr

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Common text extraction errors
var (
	// ErrImageTooLarge is returned when the image exceeds the backend's inline content limit.
	ErrImageTooLarge = errors.New("image size exceeds the maximum limit (20MB)")

	// ErrEmptyImage is returned when no image bytes were supplied.
	ErrEmptyImage = errors.New("image is empty")

	// ErrUnsupportedFormat is returned when the backend rejects the image format.
	ErrUnsupportedFormat = errors.New("unsupported or corrupted image")

	// ErrExtractionFailed is returned when the backend fails for a non-transient reason.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrRateLimited is returned when the backend rejects the call because of quota or rate limits.
	// It is retryable.
	ErrRateLimited = errors.New("text extraction rate limited")

	// ErrTransient is returned for timeouts and temporary backend unavailability.
	// It is retryable.
	ErrTransient = errors.New("transient text extraction failure")

	// ErrMissingCredentials is returned when the selected backend has no usable credentials.
	ErrMissingCredentials = errors.New("missing credentials for text extraction backend")

	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown text extraction backend")
)

// OCRError wraps errors with additional context about the extraction failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "ExtractText", "NewGoogleVisionExtractor").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// NewOCRError creates a new OCRError with the specified operation and underlying error.
func NewOCRError(op string, err error, details string) *OCRError {
	return &OCRError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return NewOCRError(op, err, details)
}

// IsRetryable reports whether err is a transport failure worth another attempt
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// classifyCode maps a gRPC status code onto the extraction error taxonomy
func classifyCode(code codes.Code) error {
	switch code {
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return ErrTransient
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrMissingCredentials
	case codes.InvalidArgument:
		return ErrUnsupportedFormat
	default:
		return ErrExtractionFailed
	}
}

// classifyGRPC converts a Google API client error into an OCRError
func classifyGRPC(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return WrapOCRError(op, err, "call canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewOCRError(op, ErrTransient, "call timed out")
	}
	st, ok := status.FromError(err)
	if !ok {
		return NewOCRError(op, ErrExtractionFailed, err.Error())
	}
	return NewOCRError(op, classifyCode(st.Code()), st.Message())
}

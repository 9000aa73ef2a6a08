package ocr

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"bannercheck/internal/logger"
	"bannercheck/pkg/models"
)

// AdapterConfig bounds how the Adapter calls a backend
type AdapterConfig struct {
	// Timeout caps each backend call. A timed-out call counts as a transient failure.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for retryable failures.
	MaxRetries int

	// Backoff is the first retry delay; later delays double up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration

	// RateLimit is the maximum number of backend calls per second. Zero disables limiting.
	RateLimit float64
}

// DefaultAdapterConfig returns the adapter defaults
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 10 * time.Second,
		RateLimit:  5,
	}
}

// Result is the outcome of one extraction. Failed results carry empty text.
type Result struct {
	Text     models.ExtractedText
	Failed   bool
	Reason   string
	Err      error // Last error of a failed result
	Attempts int
	Duration time.Duration
}

// Fatal reports whether the failure will repeat for every image of the run,
// as with rejected credentials.
func (r Result) Fatal() bool {
	return r.Failed && errors.Is(r.Err, ErrMissingCredentials)
}

// Adapter wraps a TextExtractor so that no failure crosses its boundary.
// It is safe for concurrent use when the backend is.
type Adapter struct {
	backend TextExtractor
	config  AdapterConfig
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewAdapter creates an adapter around backend
func NewAdapter(backend TextExtractor, config AdapterConfig) *Adapter {
	defaults := DefaultAdapterConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Backoff <= 0 {
		config.Backoff = defaults.Backoff
	}
	if config.MaxBackoff < config.Backoff {
		config.MaxBackoff = config.Backoff
	}

	a := &Adapter{
		backend: backend,
		config:  config,
		log:     logger.WithComponent("ocr").With().Str("backend", backend.Name()).Logger(),
	}
	if config.RateLimit > 0 {
		burst := int(config.RateLimit)
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}
	return a
}

// Backend returns the wrapped backend's name
func (a *Adapter) Backend() string {
	return a.backend.Name()
}

// Extract runs the backend with timeout, rate limiting and bounded retry.
func (a *Adapter) Extract(ctx context.Context, req Request) Result {
	const op = "Extract"
	start := time.Now()

	var (
		text     models.ExtractedText
		attempts int
	)

	backoff := retry.NewExponential(a.config.Backoff)
	backoff = retry.WithCappedDuration(a.config.MaxBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(a.config.MaxRetries), backoff)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()

		out, err := a.backend.ExtractText(callCtx, req)
		if err != nil {
			if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				err = NewOCRError(op, ErrTransient, "call exceeded "+a.config.Timeout.String())
			}
			if IsRetryable(err) {
				a.log.Warn().
					Err(err).
					Int("attempt", attempts).
					Int("max_retries", a.config.MaxRetries).
					Str("locale", req.Locale).
					Msg("Text extraction failed, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		text = out
		return nil
	})

	res := Result{Attempts: attempts, Duration: time.Since(start)}
	if err != nil {
		res.Failed = true
		res.Reason = err.Error()
		res.Err = err
		a.log.Warn().
			Err(err).
			Int("attempts", attempts).
			Str("locale", req.Locale).
			Msg("Text extraction failed, continuing with empty text")
		return res
	}

	res.Text = text
	a.log.Debug().
		Int("attempts", attempts).
		Int("fragments", len(text.Lines())).
		Dur("duration", res.Duration).
		Str("locale", req.Locale).
		Msg("Text extracted")
	return res
}

// ExtractFile reads the image at path and extracts its text. Read failures are
// reported the same way as backend failures.
func (a *Adapter) ExtractFile(ctx context.Context, path, locale string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		a.log.Warn().Err(err).Str("file", path).Msg("Failed to read image for text extraction")
		return Result{Failed: true, Reason: err.Error(), Err: err}
	}
	return a.Extract(ctx, Request{Image: data, MIMEType: DetectMIME(path, data), Locale: locale})
}

// Close releases the backend if it holds resources.
func (a *Adapter) Close() error {
	if c, ok := a.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// DetectMIME sniffs the image content and falls back to the file extension.
func DetectMIME(path string, data []byte) string {
	if mt := mimetype.Detect(data); strings.HasPrefix(mt.String(), "image/") {
		return mt.String()
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

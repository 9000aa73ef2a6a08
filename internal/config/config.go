package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bannercheck/internal/dimension"
	"bannercheck/internal/inventory"
	"bannercheck/internal/logger"
	"bannercheck/internal/ocr"
)

type Config struct {
	// Inventory Configuration
	ReferenceLocale string
	JunkDirs        []string

	// Dimension Configuration
	ScaleFactor int
	SizeBasis   dimension.Basis

	// Text Extraction Configuration
	OCRBackend     ocr.Backend
	OCRTimeout     time.Duration
	OCRMaxRetries  int
	OCRBackoff     time.Duration
	OCRConcurrency int
	OCRRateLimit   float64

	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Sheets Configuration
	GoogleSheetURL  string
	ReportSheetName string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the configuration from the environment. Backend credentials are
// checked separately by ValidateFor, since only the check and ocr commands need them.
func Load() (*Config, error) {
	const op = "config.Load"

	config := &Config{
		ReferenceLocale:            inventory.NormalizeLocale(getEnv("REFERENCE_LOCALE", "en")),
		JunkDirs:                   splitList(getEnv("JUNK_DIRS", strings.Join(inventory.DefaultJunkDirs, ","))),
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o"),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		ReportSheetName:            getEnv("REPORT_SHEET_NAME", "Banner Check"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	var err error
	if config.ScaleFactor, err = getInt("SCALE_FACTOR", dimension.DefaultScale); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if config.SizeBasis, err = dimension.ParseBasis(getEnv("SIZE_BASIS", string(dimension.BasisReference))); err != nil {
		return nil, fmt.Errorf("%s: SIZE_BASIS: %w", op, err)
	}
	if config.OCRBackend, err = ocr.ParseBackend(getEnv("OCR_BACKEND", string(ocr.BackendVision))); err != nil {
		return nil, fmt.Errorf("%s: OCR_BACKEND: %w", op, err)
	}
	if config.OCRTimeout, err = getDuration("OCR_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if config.OCRMaxRetries, err = getInt("OCR_MAX_RETRIES", 3); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if config.OCRBackoff, err = getDuration("OCR_BACKOFF", 500*time.Millisecond); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if config.OCRConcurrency, err = getInt("OCR_CONCURRENCY", 4); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if config.OCRRateLimit, err = getFloat("OCR_RATE_LIMIT", 5); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.ReferenceLocale == "" {
		return fmt.Errorf("REFERENCE_LOCALE must not be empty")
	}
	if c.ScaleFactor < 1 {
		return fmt.Errorf("SCALE_FACTOR must be at least 1, got %d", c.ScaleFactor)
	}
	if c.OCRConcurrency < 1 {
		return fmt.Errorf("OCR_CONCURRENCY must be at least 1, got %d", c.OCRConcurrency)
	}
	if c.OCRMaxRetries < 0 {
		return fmt.Errorf("OCR_MAX_RETRIES must not be negative")
	}
	if c.OCRRateLimit < 0 {
		return fmt.Errorf("OCR_RATE_LIMIT must not be negative")
	}
	return nil
}

// ValidateFor checks that the credentials the selected backend needs are present
func (c *Config) ValidateFor(backend ocr.Backend) error {
	switch backend {
	case ocr.BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for the %s backend", ocr.ErrMissingCredentials, backend)
		}
	case ocr.BackendDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("%w: GOOGLE_CLOUD_PROJECT is required for the %s backend", ocr.ErrMissingCredentials, backend)
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("%w: DOCUMENT_AI_PROCESSOR_ID is required for the %s backend", ocr.ErrMissingCredentials, backend)
		}
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetBackendConfig returns the text extraction backend configuration
func (c *Config) GetBackendConfig(backend ocr.Backend) ocr.BackendConfig {
	return ocr.BackendConfig{
		Backend: backend,
		DocumentAI: ocr.DocumentAIConfig{
			ProjectID:        c.GoogleCloudProject,
			Location:         c.GoogleCloudLocation,
			ProcessorID:      c.DocumentAIProcessorID,
			ProcessorVersion: c.DocumentAIProcessorVersion,
		},
		OpenAIAPIKey: c.OpenAIAPIKey,
		OpenAIModel:  c.OpenAIModel,
	}
}

// GetAdapterConfig returns the retry and rate limit settings for the OCR adapter
func (c *Config) GetAdapterConfig() ocr.AdapterConfig {
	cfg := ocr.DefaultAdapterConfig()
	cfg.Timeout = c.OCRTimeout
	cfg.MaxRetries = c.OCRMaxRetries
	cfg.Backoff = c.OCRBackoff
	cfg.RateLimit = c.OCRRateLimit
	return cfg
}

// GetInventoryOptions returns the locale discovery settings
func (c *Config) GetInventoryOptions() inventory.Options {
	return inventory.Options{
		ReferenceLocale: c.ReferenceLocale,
		JunkDirs:        c.JunkDirs,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getFloat(key string, defaultValue float64) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, value)
	}
	return f, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

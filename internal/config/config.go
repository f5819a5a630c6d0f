// Package config loads runtime configuration from the environment. Paths and
// flags on the CLI override what is loaded here.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

type Config struct {
	Gemini GeminiConfig
	Pacing PacingConfig
	Retry  RetryConfig

	LogLevel string `envconfig:"ENRICHER_LOG_LEVEL" default:"info"`
}

// GeminiConfig holds inference collaborator settings. The API key has no
// default and is required unless the run is a dry run.
type GeminiConfig struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" default:""`
	Model   string `envconfig:"ENRICHER_GEMINI_MODEL" default:"gemini-2.5-flash"`
	BaseURL string `envconfig:"ENRICHER_GEMINI_BASE_URL" default:""`
}

// PacingConfig mirrors batch.PacingPolicy. The defaults pace conservatively
// against free-tier rate limits.
type PacingConfig struct {
	MinCallInterval time.Duration `envconfig:"ENRICHER_MIN_CALL_INTERVAL" default:"500ms"`
	RecordDelay     time.Duration `envconfig:"ENRICHER_RECORD_DELAY" default:"200ms"`
	BatchSize       int           `envconfig:"ENRICHER_BATCH_SIZE" default:"5"`
	BatchDelay      time.Duration `envconfig:"ENRICHER_BATCH_DELAY" default:"2s"`
}

type RetryConfig struct {
	MaxRetries     int           `envconfig:"ENRICHER_MAX_RETRIES" default:"3"`
	RequestTimeout time.Duration `envconfig:"ENRICHER_REQUEST_TIMEOUT" default:"60s"`
	BackoffInitial time.Duration `envconfig:"ENRICHER_BACKOFF_INITIAL" default:"1s"`
	BackoffMax     time.Duration `envconfig:"ENRICHER_BACKOFF_MAX" default:"30s"`
}

func New() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return cfg, nil
}

// Validate checks values the envconfig tags cannot express. requireKey is
// false for dry runs, which never contact the inference backend.
func (c *Config) Validate(requireKey bool) error {
	if requireKey && c.Gemini.APIKey == "" {
		return errors.New("GEMINI_API_KEY is not set")
	}
	if c.Pacing.BatchSize < 0 {
		return errors.New("ENRICHER_BATCH_SIZE must not be negative")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New("ENRICHER_MAX_RETRIES must not be negative")
	}
	return nil
}

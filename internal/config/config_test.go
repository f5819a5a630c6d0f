package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 500*time.Millisecond, cfg.Pacing.MinCallInterval)
	assert.Equal(t, 5, cfg.Pacing.BatchSize)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENRICHER_BATCH_SIZE", "10")
	t.Setenv("ENRICHER_RECORD_DELAY", "50ms")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Pacing.BatchSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Pacing.RecordDelay)
	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.Pacing.BatchSize = 5

	require.Error(t, cfg.Validate(true), "missing API key must be rejected")
	require.NoError(t, cfg.Validate(false), "dry runs do not need a key")

	cfg.Retry.MaxRetries = -1
	require.Error(t, cfg.Validate(false))
}

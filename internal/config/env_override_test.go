package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEnvOverrides_AllFieldsOverride(t *testing.T) {
	cfg := DefaultConfig()

	t.Setenv("GROK_API_KEY", "xai-test-key")
	t.Setenv("GROK_BASE_URL", "https://custom.example.com/v1")
	t.Setenv("GROK_MODEL", "grok-4-mini")
	t.Setenv("GROK_TIMEOUT", "30000")
	t.Setenv("GROK_STREAM_TIMEOUT", "90000")
	t.Setenv("GROK_TEMPERATURE", "0.9")
	t.Setenv("GROK_MAX_TOKENS", "8192")

	applyEnvOverrides(cfg)

	assert.Equal(t, "xai-test-key", cfg.LLM.APIKey)
	assert.Equal(t, "https://custom.example.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "grok-4-mini", cfg.LLM.Model)
	assert.Equal(t, int64(30000), cfg.LLM.TimeoutMs)
	assert.Equal(t, int64(90000), cfg.LLM.StreamTimeoutMs)
	assert.Equal(t, 0.9, cfg.LLM.Temperature)
	assert.Equal(t, 8192, cfg.LLM.MaxTokens)
}

func TestApplyEnvOverrides_EmptyEnvLeavesDefaults(t *testing.T) {
	cfg := DefaultConfig()
	before := *cfg

	applyEnvOverrides(cfg)

	assert.Equal(t, before.LLM, cfg.LLM)
}

func TestApplyEnvOverrides_InvalidNumericValuesIgnored(t *testing.T) {
	cfg := DefaultConfig()
	before := cfg.LLM.Temperature

	t.Setenv("GROK_TEMPERATURE", "not-a-number")
	applyEnvOverrides(cfg)

	assert.Equal(t, before, cfg.LLM.Temperature)
}

package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "https://api.openai.com/v1", cfg.VisionHost)
	assert.Equal(t, "https://api.openai.com/v1", cfg.TranscriptionHost)
	assert.Equal(t, "gpt-4o", cfg.VisionModel)
	assert.Equal(t, "whisper-1", cfg.TranscriptionModel)
	assert.Equal(t, 16000, cfg.VisionMaxTokens)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.VisionHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.TranscriptionHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithVisionHost("http://vision:9090/v1"),
			WithTranscriptionHost("http://whisper:7070/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://vision:9090/v1", cfg.VisionHost)
		assert.Equal(t, "http://whisper:7070/v1", cfg.TranscriptionHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider("Gemini"),
			WithAPIKey("secret"),
			WithEmbeddingModel("custom-embed"),
			WithVisionModel("custom-vision"),
			WithTranscriptionModel("custom-whisper"),
			WithVisionMaxTokens(100),
			WithEmbeddingBatchSize(16),
			WithRequestTimeout(time.Second),
		)

		assert.Equal(t, ProviderGemini, cfg.Provider)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-vision", cfg.VisionModel)
		assert.Equal(t, "custom-whisper", cfg.TranscriptionModel)
		assert.Equal(t, 100, cfg.VisionMaxTokens)
		assert.Equal(t, 16, cfg.EmbeddingBatchSize)
		assert.Equal(t, time.Second, cfg.RequestTimeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost:     tt.host,
				VisionHost:        tt.host,
				TranscriptionHost: tt.host,
			}

			cfg.Normalize()

			assert.Equal(t, ProviderOpenAI, cfg.Provider)
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.VisionHost)
			assert.Equal(t, tt.expected, cfg.TranscriptionHost)
		})
	}

	t.Run("gemini hosts untouched", func(t *testing.T) {
		cfg := &Config{Provider: "gemini", EmbeddingHost: "http://x"}
		cfg.Normalize()
		assert.Equal(t, "http://x", cfg.EmbeddingHost)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewConfig(WithHost("http://localhost:11434"))
		return cfg
	}

	t.Run("valid config normalizes", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing vision host", func(c *Config) { c.VisionHost = "" }, "VisionHost"},
		{"missing transcription host", func(c *Config) { c.TranscriptionHost = "" }, "TranscriptionHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing vision model", func(c *Config) { c.VisionModel = "" }, "VisionModel"},
		{"missing transcription model", func(c *Config) { c.TranscriptionModel = "" }, "TranscriptionModel"},
		{"zero max tokens", func(c *Config) { c.VisionMaxTokens = 0 }, "VisionMaxTokens"},
		{"zero batch size", func(c *Config) { c.EmbeddingBatchSize = 0 }, "EmbeddingBatchSize"},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "RequestTimeout"},
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }, "Provider"},
		{"gemini without key", func(c *Config) { c.Provider = ProviderGemini }, "APIKey"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestConfigToken(t *testing.T) {
	assert.Equal(t, "none", (&Config{}).Token())
	assert.Equal(t, "sk-1", (&Config{APIKey: "sk-1"}).Token())
}

func TestConfigValidate_Integration(t *testing.T) {
	require.NoError(t, NewConfig().Validate())
	require.NoError(t, DefaultConfig().Validate())

	gemini := DefaultGeminiConfig()
	gemini.APIKey = "key"
	require.NoError(t, gemini.Validate())
}

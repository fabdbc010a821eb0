// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Provider kinds understood by Config.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Provider selects the implementation: "openai" for OpenAI-compatible
	// APIs, "gemini" for Google Gemini.
	Provider string

	// APIKey authenticates against the provider. OpenAI-compatible local
	// servers accept an empty key; Gemini requires one.
	APIKey string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// VisionHost is the base URL for the vision-capable chat model used for OCR.
	VisionHost string

	// TranscriptionHost is the base URL for the speech-to-text service.
	TranscriptionHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "gemini-embedding-001"
	EmbeddingModel string

	// VisionModel is the model identifier used to transcribe page images.
	// Example: "gpt-4o", "gemini-2.0-flash"
	VisionModel string

	// TranscriptionModel is the model identifier used for audio segments.
	// Example: "whisper-1"
	TranscriptionModel string

	// VisionMaxTokens caps the length of one page transcription.
	// Default: 16000
	VisionMaxTokens int

	// EmbeddingBatchSize is the number of texts sent per embedding request.
	// Default: 512
	EmbeddingBatchSize int

	// RequestTimeout bounds a single HTTP request to the provider.
	// Zero disables the client-side timeout.
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider selects the provider implementation.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = strings.ToLower(provider)
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithVisionHost sets the vision service host URL.
func WithVisionHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
	}
}

// WithTranscriptionHost sets the transcription service host URL.
func WithTranscriptionHost(host string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionHost = host
	}
}

// WithHost sets the embedding, vision and transcription hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.VisionHost = host
		c.TranscriptionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithVisionModel sets the vision model identifier.
func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

// WithTranscriptionModel sets the transcription model identifier.
func WithTranscriptionModel(model string) ConfigOption {
	return func(c *Config) {
		c.TranscriptionModel = model
	}
}

// WithVisionMaxTokens sets the token cap for a page transcription.
func WithVisionMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.VisionMaxTokens = n
	}
}

// WithEmbeddingBatchSize sets how many texts go into one embedding request.
func WithEmbeddingBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.EmbeddingBatchSize = n
	}
}

// WithRequestTimeout sets the per-request HTTP timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// DefaultConfig returns a Config targeting the OpenAI API with the models
// the ingestion service was built around.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		Provider:           ProviderOpenAI,
		EmbeddingHost:      defaultHost,
		VisionHost:         defaultHost,
		TranscriptionHost:  defaultHost,
		EmbeddingModel:     "text-embedding-3-small",
		VisionModel:        "gpt-4o",
		TranscriptionModel: "whisper-1",
		VisionMaxTokens:    16000,
		EmbeddingBatchSize: 512,
		RequestTimeout:     2 * time.Minute,
	}
}

// DefaultGeminiConfig returns a Config for Google Gemini.
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:           ProviderGemini,
		EmbeddingModel:     "gemini-embedding-001",
		VisionModel:        "gemini-2.0-flash",
		TranscriptionModel: "gemini-2.0-flash",
		VisionMaxTokens:    8192,
		EmbeddingBatchSize: 100,
		RequestTimeout:     2 * time.Minute,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Token returns the bearer token for OpenAI-compatible clients.
// Local servers that do not authenticate get the placeholder "none".
func (c *Config) Token() string {
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}

// Normalize ensures the configuration is in a canonical form.
// For OpenAI-compatible providers it adds the /v1 suffix to hosts if missing,
// which is required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Provider != ProviderOpenAI {
		return
	}
	c.EmbeddingHost = withV1(c.EmbeddingHost)
	c.VisionHost = withV1(c.VisionHost)
	c.TranscriptionHost = withV1(c.TranscriptionHost)
}

func withV1(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
		if c.VisionHost == "" {
			return errors.New("ai config: VisionHost is required")
		}
		if c.TranscriptionHost == "" {
			return errors.New("ai config: TranscriptionHost is required")
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for gemini")
		}
	default:
		return errors.New("ai config: Provider must be one of openai, gemini")
	}

	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if c.TranscriptionModel == "" {
		return errors.New("ai config: TranscriptionModel is required")
	}
	if c.VisionMaxTokens < 1 {
		return errors.New("ai config: VisionMaxTokens must be positive")
	}
	if c.EmbeddingBatchSize < 1 {
		return errors.New("ai config: EmbeddingBatchSize must be positive")
	}
	if c.RequestTimeout < 0 {
		return errors.New("ai config: RequestTimeout cannot be negative")
	}
	return nil
}

package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docingest/ai"
	"google.golang.org/api/option"
)

// Provider implements ai.AIProvider using Google Gemini.
type Provider struct {
	client      *genai.Client
	embedder    *Embedder
	vision      *VisionExtractor
	transcriber *Transcriber
	logger      *slog.Logger
}

// NewProvider creates a Gemini-backed provider. The config must name the
// gemini provider and carry an API key.
//
// Returns ai.AIProvider interface to enforce abstraction.
func NewProvider(ctx context.Context, config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Provider != ai.ProviderGemini {
		return nil, fmt.Errorf("gemini provider: config names provider %q", config.Provider)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	httpClient := &http.Client{Timeout: config.RequestTimeout}
	return &Provider{
		client:      client,
		embedder:    newEmbedder(client, config),
		vision:      newVisionExtractor(client, config, httpClient),
		transcriber: newTranscriber(client, config),
		logger:      slog.Default().With("component", "gemini-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// VisionExtractor returns the image transcription service.
func (p *Provider) VisionExtractor() ai.VisionExtractor {
	return p.vision
}

// Transcriber returns the speech-to-text service.
func (p *Provider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// Close releases the underlying Gemini client.
func (p *Provider) Close() error {
	p.logger.Debug("closing Gemini provider")
	return p.client.Close()
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	return text
}

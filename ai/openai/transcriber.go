package openai

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/poiesic/docingest/ai"
	gopenai "github.com/sashabaranov/go-openai"
)

// Transcriber implements ai.Transcriber against the OpenAI audio
// transcription endpoint (Whisper) or a compatible server.
type Transcriber struct {
	client *gopenai.Client
	model  string
	logger *slog.Logger
}

// newTranscriber is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTranscriber(config *ai.Config) (*Transcriber, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	clientConfig := gopenai.DefaultConfig(config.Token())
	clientConfig.BaseURL = config.TranscriptionHost
	clientConfig.HTTPClient = &http.Client{Timeout: config.RequestTimeout}

	return &Transcriber{
		client: gopenai.NewClientWithConfig(clientConfig),
		model:  config.TranscriptionModel,
		logger: slog.Default().With("component", "openai-transcriber"),
	}, nil
}

// NewTranscriber creates a new transcriber using the provided configuration.
//
// Returns ai.Transcriber interface to enforce abstraction.
func NewTranscriber(config *ai.Config) (ai.Transcriber, error) {
	return newTranscriber(config)
}

// Transcribe uploads one audio clip and returns its transcript.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	t.logger.Debug("transcribing audio", "file", filename, "bytes", len(audio))

	resp, err := t.client.CreateTranscription(ctx, gopenai.AudioRequest{
		Model:    t.model,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Format:   gopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		t.logger.Error("failed to transcribe audio", "file", filename, "err", err)
		return "", err
	}

	return strings.TrimSpace(resp.Text), nil
}

package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docingest/ai"
)

// Transcriber implements ai.Transcriber by prompting a Gemini model with
// inline audio.
type Transcriber struct {
	model  *genai.GenerativeModel
	logger *slog.Logger
}

func newTranscriber(client *genai.Client, config *ai.Config) *Transcriber {
	model := client.GenerativeModel(config.TranscriptionModel)
	model.SetTemperature(0)
	return &Transcriber{
		model:  model,
		logger: slog.Default().With("component", "gemini-transcriber"),
	}
}

// Transcribe sends one clip as an inline blob and returns the transcript.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	resp, err := t.model.GenerateContent(ctx,
		genai.Text(ai.TranscriptionInstruction),
		genai.Blob{MIMEType: ai.AudioMIMEType(filename), Data: audio},
	)
	if err != nil {
		t.logger.Error("failed to transcribe audio", "file", filename, "err", err)
		return "", fmt.Errorf("gemini transcription: %w", err)
	}
	return strings.TrimSpace(responseText(resp)), nil
}

package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docingest/ai"
)

// maxImageBytes bounds a downloaded page image.
const maxImageBytes = 20 << 20

// VisionExtractor implements ai.VisionExtractor with a Gemini model.
type VisionExtractor struct {
	model  *genai.GenerativeModel
	http   *http.Client
	logger *slog.Logger
}

func newVisionExtractor(client *genai.Client, config *ai.Config, httpClient *http.Client) *VisionExtractor {
	model := client.GenerativeModel(config.VisionModel)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(config.VisionMaxTokens))
	return &VisionExtractor{
		model:  model,
		http:   httpClient,
		logger: slog.Default().With("component", "gemini-vision"),
	}
}

// ExtractText downloads the image at imageURL and asks the model to
// transcribe it.
func (v *VisionExtractor) ExtractText(ctx context.Context, imageURL string) (string, error) {
	data, err := fetchImage(ctx, v.http, imageURL)
	if err != nil {
		return "", err
	}

	resp, err := v.model.GenerateContent(ctx,
		genai.Text(ai.OCRInstruction),
		genai.ImageData(ai.ImageFormat(imageURL), data),
	)
	if err != nil {
		v.logger.Error("failed to transcribe image", "err", err)
		return "", fmt.Errorf("gemini vision: %w", err)
	}
	return strings.TrimSpace(responseText(resp)), nil
}

func fetchImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	return data, nil
}

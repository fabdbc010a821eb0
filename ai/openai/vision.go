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


package openai

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/poiesic/docingest/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// VisionExtractor implements ai.VisionExtractor with a vision-capable
// OpenAI-compatible chat model.
type VisionExtractor struct {
	client    llms.Model
	maxTokens int
	logger    *slog.Logger
}

// newVisionExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newVisionExtractor(config *ai.Config) (*VisionExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.VisionHost),
		openai.WithToken(config.Token()),
		openai.WithModel(config.VisionModel),
		openai.WithHTTPClient(&http.Client{Timeout: config.RequestTimeout}),
	)
	if err != nil {
		return nil, err
	}

	return newVisionExtractorFromModel(client, config.VisionMaxTokens), nil
}

func newVisionExtractorFromModel(client llms.Model, maxTokens int) *VisionExtractor {
	return &VisionExtractor{
		client:    client,
		maxTokens: maxTokens,
		logger:    slog.Default().With("component", "openai-vision"),
	}
}

// NewVisionExtractor creates a new vision extractor using the provided configuration.
//
// Returns ai.VisionExtractor interface to enforce abstraction.
func NewVisionExtractor(config *ai.Config) (ai.VisionExtractor, error) {
	return newVisionExtractor(config)
}

// ExtractText asks the model to transcribe the image at imageURL.
// The URL must be reachable by the model service; presigned object URLs are.
func (v *VisionExtractor) ExtractText(ctx context.Context, imageURL string) (string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(ai.OCRInstruction),
				llms.ImageURLPart(imageURL),
			},
		},
	}

	response, err := v.client.GenerateContent(ctx, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(v.maxTokens),
	)
	if err != nil {
		v.logger.Error("failed to transcribe image", "err", err)
		return "", err
	}

	if len(response.Choices) < 1 {
		v.logger.Debug("no choices returned from model")
		return "", nil
	}

	return cleanTranscript(response.Choices[0].Content), nil
}

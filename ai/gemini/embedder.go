package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"github.com/poiesic/docingest/ai"
)

var errEmptyEmbedding = errors.New("gemini returned an empty embedding")

// Embedder implements ai.Embedder with a Gemini embedding model.
type Embedder struct {
	model     *genai.EmbeddingModel
	batchSize int
	logger    *slog.Logger
}

func newEmbedder(client *genai.Client, config *ai.Config) *Embedder {
	return &Embedder{
		model:     client.EmbeddingModel(config.EmbeddingModel),
		batchSize: config.EmbeddingBatchSize,
		logger:    slog.Default().With("component", "gemini-embedder"),
	}
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, errEmptyEmbedding
	}
	return res.Embedding.Values, nil
}

// EmbedTexts embeds texts with BatchEmbedContents, batchSize texts per request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch := e.model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		res, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			e.logger.Error("failed to generate embeddings", "count", end-start, "err", err)
			return nil, fmt.Errorf("gemini batch embed: %w", err)
		}

		got, err := batchValues(res, end-start)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, got...)
	}
	return vectors, nil
}

func batchValues(res *genai.BatchEmbedContentsResponse, want int) ([][]float32, error) {
	if res == nil || len(res.Embeddings) != want {
		got := 0
		if res != nil {
			got = len(res.Embeddings)
		}
		return nil, fmt.Errorf("gemini batch embed: want %d embeddings, got %d", want, got)
	}
	out := make([][]float32, want)
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, errEmptyEmbedding
		}
		out[i] = emb.Values
	}
	return out, nil
}

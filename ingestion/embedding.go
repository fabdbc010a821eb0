package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/taskrunner"
)

// EmbeddingOrchestrator embeds a document's chunk texts in one batched
// call and checks that the vectors map back onto the chunks.
type EmbeddingOrchestrator struct {
	embedder   ai.Embedder
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger
}

// EmbeddingOption configures an EmbeddingOrchestrator.
type EmbeddingOption func(*EmbeddingOrchestrator) error

// WithEmbeddingRetry retries the batched call up to attempts times with
// exponential backoff starting at baseDelay.
func WithEmbeddingRetry(attempts int, baseDelay time.Duration) EmbeddingOption {
	return func(o *EmbeddingOrchestrator) error {
		if attempts < 1 {
			return errors.New("embedding attempts must be at least 1")
		}
		o.attempts = attempts
		o.retryDelay = baseDelay
		return nil
	}
}

// WithEmbeddingLogger sets the orchestrator logger.
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(o *EmbeddingOrchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewEmbeddingOrchestrator creates an orchestrator around embedder.
// By default the batched call is tried three times.
func NewEmbeddingOrchestrator(embedder ai.Embedder, opts ...EmbeddingOption) (*EmbeddingOrchestrator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	o := &EmbeddingOrchestrator{
		embedder:   embedder,
		attempts:   3,
		retryDelay: time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	o.logger = o.logger.With("component", "embeddings")
	return o, nil
}

// Embed returns one vector per chunk, in chunk order. Empty input returns
// an empty result without calling the service. Any service failure, a
// count mismatch or vectors of differing dimensionality yield
// core.ErrEmbeddingService.
func (o *EmbeddingOrchestrator) Embed(ctx context.Context, chunks []string) ([][]float32, error) {
	if len(chunks) == 0 {
		return [][]float32{}, nil
	}

	o.logger.Debug("generating embeddings", "chunks", len(chunks))

	var vectors [][]float32
	err := taskrunner.Retry(ctx, func() error {
		var err error
		vectors, err = o.embedder.EmbedTexts(ctx, chunks)
		return err
	}, o.attempts, o.retryDelay)
	if err != nil {
		o.logger.Error("error generating embeddings", "err", err)
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: expected %d embeddings, received %d",
			core.ErrEmbeddingService, len(chunks), len(vectors))
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 || len(v) != dim {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, expected %d",
				core.ErrEmbeddingService, i, len(v), dim)
		}
	}
	return vectors, nil
}

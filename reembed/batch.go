package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"github.com/poiesic/docingest/taskrunner"
)

// BatchProcessor handles embedding generation for batches of chunks.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and stores them.
// Vectors are normalized to unit length before they are written.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	var embeddings [][]float32
	err := taskrunner.Retry(ctx, func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d embeddings, got %d",
			core.ErrEmbeddingService, len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Embedding = NormalizeVector(embeddings[i])
	}

	if err := bp.repo.UpdateChunkEmbeddings(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}

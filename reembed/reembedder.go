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
package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks sent per embedding request
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// OnlyMissing restricts the run to chunks without an embedding
	OnlyMissing bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates the embeddings of stored chunks.
type Reembedder struct {
	repo      storage.ChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
}

// NewReembedder creates a new reembedder. A nil config uses DefaultConfig.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.ChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewChunkIterator(repo, config.BatchSize, config.OnlyMissing),
	}, nil
}

// Run reembeds every targeted chunk and returns how many were written.
// A failed batch aborts the run; batches already written stay written.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.countTargets(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks to reembed (0 chunks)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(chunks []*core.Chunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(chunks)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		processed, elapsed.Round(time.Second), float64(processed)/elapsed.Seconds())

	return processed, nil
}

func (r *Reembedder) countTargets(ctx context.Context) (int, error) {
	if !r.config.OnlyMissing {
		return r.repo.CountChunks(ctx)
	}
	n := 0
	err := r.repo.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		if !chunk.HasEmbedding() {
			n++
		}
		return nil
	})
	return n, err
}

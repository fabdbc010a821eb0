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

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

const (
	// DefaultBatchSize is the default number of chunks handed to fn at once
	DefaultBatchSize = 100
)

// ChunkIterator walks every stored chunk in batches.
type ChunkIterator struct {
	repo        storage.ChunkRepository
	batchSize   int
	onlyMissing bool
}

// NewChunkIterator creates a new chunk iterator.
// batchSize: number of chunks per batch; values <= 0 use DefaultBatchSize
// onlyMissing: skip chunks that already carry an embedding
func NewChunkIterator(repo storage.ChunkRepository, batchSize int, onlyMissing bool) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChunkIterator{
		repo:        repo,
		batchSize:   batchSize,
		onlyMissing: onlyMissing,
	}
}

// ForEach calls fn with successive batches of chunks, in document and
// chunk order. The last batch may be short. Iteration stops on the first
// error from fn or on context cancellation.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.Chunk) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]*core.Chunk, 0, it.batchSize)
	err := it.repo.ForEachChunk(ctx, func(chunk *core.Chunk) error {
		if it.onlyMissing && chunk.HasEmbedding() {
			return nil
		}
		batch = append(batch, chunk)
		if len(batch) < it.batchSize {
			return nil
		}
		full := batch
		batch = make([]*core.Chunk, 0, it.batchSize)
		return fn(full)
	})
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"github.com/poiesic/docingest/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) storage.ChunkRepository {
	t.Helper()
	backend, err := badger.OpenBackend("", true)
	require.NoError(t, err)

	_, repo, err := badger.NewRepositories(backend)
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

// addDocument stores n chunks for a new document and returns them.
// Chunks at the indexes in embedded get a placeholder vector.
func addDocument(t *testing.T, repo storage.ChunkRepository, n int, embedded ...int) []*core.Chunk {
	t.Helper()
	docID := core.NewDocumentID()
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Sentence %d of %s.", i+1, docID.Hex())
	}
	chunks := core.NewChunks(docID, texts, time.Now())
	for _, i := range embedded {
		chunks[i].Embedding = []float32{1, 0, 0}
	}
	require.NoError(t, repo.ReplaceChunks(context.Background(), docID, chunks))
	return chunks
}

func TestChunkIterator_Batches(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 3)
	addDocument(t, repo, 2)

	var sizes []int
	total := 0
	err := NewChunkIterator(repo, 2, false).ForEach(context.Background(), func(chunks []*core.Chunk) error {
		sizes = append(sizes, len(chunks))
		total += len(chunks)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, 5, total)
}

func TestChunkIterator_ExactMultiple(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 4)

	calls := 0
	err := NewChunkIterator(repo, 2, false).ForEach(context.Background(), func(chunks []*core.Chunk) error {
		calls++
		assert.Len(t, chunks, 2)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "no trailing empty batch")
}

func TestChunkIterator_Empty(t *testing.T) {
	repo := setupTestRepo(t)

	called := false
	err := NewChunkIterator(repo, 10, false).ForEach(context.Background(), func([]*core.Chunk) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
}

func TestChunkIterator_OnlyMissing(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 4, 0, 2)

	var numbers []int
	err := NewChunkIterator(repo, 10, true).ForEach(context.Background(), func(chunks []*core.Chunk) error {
		for _, c := range chunks {
			numbers = append(numbers, c.ChunkNumber)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, numbers)
}

func TestChunkIterator_DefaultBatchSize(t *testing.T) {
	it := NewChunkIterator(setupTestRepo(t), 0, false)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}

func TestChunkIterator_StopsOnError(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 5)

	boom := errors.New("stop")
	calls := 0
	err := NewChunkIterator(repo, 1, false).ForEach(context.Background(), func([]*core.Chunk) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestChunkIterator_CancelledContext(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewChunkIterator(repo, 1, false).ForEach(ctx, func([]*core.Chunk) error {
		t.Fatal("fn should not be called")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

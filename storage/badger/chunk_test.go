package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChunks(t *testing.T) storage.ChunkRepository {
	t.Helper()
	_, chunks, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return chunks
}

func chunkTexts(chunks []*core.Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}

func TestReplaceChunks_RemovesEveryPreviousChunk(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()
	now := time.Now().UTC()

	original := core.NewChunks(docID, []string{"One.", "Two.", "Three.", "Four.", "Five."}, now)
	require.NoError(t, repo.ReplaceChunks(ctx, docID, original))

	replacement := core.NewChunks(docID, []string{"Alpha.", "Beta.", "Gamma."}, now)
	require.NoError(t, repo.ReplaceChunks(ctx, docID, replacement))

	got, err := repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Alpha.", "Beta.", "Gamma."}, chunkTexts(got))
	for i, c := range got {
		assert.Equal(t, i+1, c.ChunkNumber)
		assert.Equal(t, replacement[i].ID, c.ID)
	}

	n, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func largeChunkSet(docID core.DocumentID, n, dims int, now time.Time) []*core.Chunk {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Sentence number %d of a long transcript.", i+1)
	}
	chunks := core.NewChunks(docID, texts, now)
	for i, c := range chunks {
		c.Embedding = make([]float32, dims)
		for j := range c.Embedding {
			c.Embedding[j] = float32((i+j)%97) / 97
		}
	}
	return chunks
}

func TestReplaceChunks_LargeDocument(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()
	now := time.Now().UTC()

	require.NoError(t, repo.ReplaceChunks(ctx, docID, largeChunkSet(docID, 2000, 1536, now)))

	n, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2000, n)

	// shrinking a large set must still remove the tail
	replacement := largeChunkSet(docID, 1200, 1536, now)
	require.NoError(t, repo.ReplaceChunks(ctx, docID, replacement))

	got, err := repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, got, 1200)
	assert.Equal(t, replacement[0].ID, got[0].ID)
	assert.Equal(t, replacement[1199].ID, got[1199].ID)
	assert.Len(t, got[1199].Embedding, 1536)
}

func TestReplaceChunks_LeavesOtherDocumentsAlone(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	now := time.Now().UTC()
	a, b := core.NewDocumentID(), core.NewDocumentID()

	require.NoError(t, repo.ReplaceChunks(ctx, a, core.NewChunks(a, []string{"A1.", "A2."}, now)))
	require.NoError(t, repo.ReplaceChunks(ctx, b, core.NewChunks(b, []string{"B1."}, now)))
	require.NoError(t, repo.ReplaceChunks(ctx, a, nil))

	got, err := repo.GetChunks(ctx, a)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = repo.GetChunks(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1."}, chunkTexts(got))
}

func TestReplaceChunks_RejectsInvalidSets(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()
	now := time.Now().UTC()

	gap := core.NewChunks(docID, []string{"a.", "b."}, now)
	gap[1].ChunkNumber = 3
	assert.ErrorIs(t, repo.ReplaceChunks(ctx, docID, gap), core.ErrInvalidChunkNumber)

	other := core.NewDocumentID()
	foreign := core.NewChunks(other, []string{"a."}, now)
	assert.ErrorIs(t, repo.ReplaceChunks(ctx, docID, foreign), core.ErrInvalidChunk)

	n, err := repo.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetChunks_OrderedPastTwoDigits(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = string(rune('a'+i)) + "."
	}
	require.NoError(t, repo.ReplaceChunks(ctx, docID, core.NewChunks(docID, texts, time.Now().UTC())))

	got, err := repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, texts, chunkTexts(got))
}

func TestUpdateChunkEmbeddings(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()

	chunks := core.NewChunks(docID, []string{"a.", "b."}, time.Now().UTC())
	require.NoError(t, repo.ReplaceChunks(ctx, docID, chunks))

	chunks[1].Embedding = []float32{0.6, 0.8}
	require.NoError(t, repo.UpdateChunkEmbeddings(ctx, chunks[1]))

	got, err := repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.False(t, got[0].HasEmbedding())
	assert.Equal(t, []float32{0.6, 0.8}, got[1].Embedding)
}

func TestUpdateChunkEmbeddings_MissingChunkWritesNothing(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()

	chunks := core.NewChunks(docID, []string{"a."}, time.Now().UTC())
	require.NoError(t, repo.ReplaceChunks(ctx, docID, chunks))

	chunks[0].Embedding = []float32{1}
	ghost := core.NewChunks(docID, []string{"ghost."}, time.Now().UTC())[0]
	ghost.Embedding = []float32{1}

	err := repo.UpdateChunkEmbeddings(ctx, chunks[0], ghost)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := repo.GetChunks(ctx, docID)
	require.NoError(t, err)
	assert.False(t, got[0].HasEmbedding())
}

func TestForEachEmbeddedChunk(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	now := time.Now().UTC()
	a, b := core.NewDocumentID(), core.NewDocumentID()

	aChunks := core.NewChunks(a, []string{"a1.", "a2."}, now)
	aChunks[0].Embedding = []float32{1, 0}
	bChunks := core.NewChunks(b, []string{"b1."}, now)
	bChunks[0].Embedding = []float32{0, 1}
	require.NoError(t, repo.ReplaceChunks(ctx, a, aChunks))
	require.NoError(t, repo.ReplaceChunks(ctx, b, bChunks))

	var all []string
	err := repo.ForEachEmbeddedChunk(ctx, core.DocumentID{}, func(c *core.Chunk) error {
		all = append(all, c.Text)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1.", "b1."}, all)

	var scoped []string
	err = repo.ForEachEmbeddedChunk(ctx, b, func(c *core.Chunk) error {
		scoped = append(scoped, c.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1."}, scoped)

	var every []string
	err = repo.ForEachChunk(ctx, func(c *core.Chunk) error {
		every = append(every, c.Text)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, every, 3)
}

func TestForEachEmbeddedChunk_StopsOnError(t *testing.T) {
	repo := setupChunks(t)
	ctx := context.Background()
	docID := core.NewDocumentID()

	chunks := core.NewChunks(docID, []string{"a.", "b.", "c."}, time.Now().UTC())
	for _, c := range chunks {
		c.Embedding = []float32{1}
	}
	require.NoError(t, repo.ReplaceChunks(ctx, docID, chunks))

	stop := errors.New("stop")
	visited := 0
	err := repo.ForEachEmbeddedChunk(ctx, docID, func(*core.Chunk) error {
		visited++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, visited)
}

func TestForEachChunk_CanceledContext(t *testing.T) {
	repo := setupChunks(t)
	docID := core.NewDocumentID()
	require.NoError(t, repo.ReplaceChunks(context.Background(), docID,
		core.NewChunks(docID, []string{"a."}, time.Now().UTC())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := repo.ForEachChunk(ctx, func(*core.Chunk) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

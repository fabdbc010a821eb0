package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/docingest/ai/mock"
	"github.com/poiesic/docingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		MaxRetries:     3,
		RetryDelay:     time.Millisecond,
	}
}

func TestNewReembedder(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := NewReembedder(nil, mock.NewMockEmbedder(), nil, nil)
	assert.Equal(t, ErrChunkRepositoryRequired, err)

	_, err = NewReembedder(repo, nil, nil, nil)
	assert.Equal(t, ErrEmbedderRequired, err)

	r, err := NewReembedder(repo, mock.NewMockEmbedder(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestReembedder_Run(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	first := addDocument(t, repo, 6)
	second := addDocument(t, repo, 4)

	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	embedder.Dimensions = 4
	reembedder, err := NewReembedder(repo, embedder, testConfig(), &buf)
	require.NoError(t, err)

	n, err := reembedder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 4, embedder.CallCount(), "10 chunks in batches of 3")

	for _, docID := range []core.DocumentID{first[0].DocumentID, second[0].DocumentID} {
		stored, err := repo.GetChunks(ctx, docID)
		require.NoError(t, err)
		for _, c := range stored {
			assert.Len(t, c.Embedding, 4, "chunk %d", c.ChunkNumber)
		}
	}

	output := buf.String()
	assert.Contains(t, output, "Starting reembedding of 10 chunks")
	assert.Contains(t, output, "10/10")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_OnlyMissing(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 5, 0, 1, 2)

	cfg := testConfig()
	cfg.OnlyMissing = true
	embedder := mock.NewMockEmbedder()
	reembedder, err := NewReembedder(repo, embedder, cfg, nil)
	require.NoError(t, err)

	n, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, embedder.Batches(), 1)
	assert.Len(t, embedder.Batches()[0], 2)
}

func TestReembedder_EmptyRepository(t *testing.T) {
	var buf bytes.Buffer
	embedder := mock.NewMockEmbedder()
	reembedder, err := NewReembedder(setupTestRepo(t), embedder, nil, &buf)
	require.NoError(t, err)

	n, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), "0 chunks")
	assert.Equal(t, 0, embedder.CallCount())
}

func TestReembedder_BatchFailureStopsRun(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 7)

	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("quota exceeded")
		}
		out := make([][]float32, len(texts))
		for i := range texts {
			out[i] = []float32{0, 1}
		}
		return out, nil
	}
	cfg := testConfig()
	cfg.MaxRetries = 1
	reembedder, err := NewReembedder(repo, embedder, cfg, nil)
	require.NoError(t, err)

	n, err := reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 3, n, "first batch stays written")
}

func TestReembedder_Cancelled(t *testing.T) {
	repo := setupTestRepo(t)
	addDocument(t, repo, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reembedder, err := NewReembedder(repo, mock.NewMockEmbedder(), testConfig(), nil)
	require.NoError(t, err)
	_, err = reembedder.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

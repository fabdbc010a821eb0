package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDocuments(t *testing.T) storage.DocumentRepository {
	t.Helper()
	docs, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return docs
}

func TestCreateDocument_Defaults(t *testing.T) {
	docs := setupDocuments(t)
	ctx := context.Background()

	created, err := docs.CreateDocument(ctx, &core.Document{FileType: "pdf"})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, core.StatusPending, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := docs.GetDocument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "pdf", got.FileType)
	assert.Equal(t, core.StatusPending, got.Status)
}

func TestCreateDocument_Duplicate(t *testing.T) {
	docs := setupDocuments(t)
	ctx := context.Background()

	id := core.NewDocumentID()
	_, err := docs.CreateDocument(ctx, &core.Document{ID: id})
	require.NoError(t, err)

	_, err = docs.CreateDocument(ctx, &core.Document{ID: id})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCreateDocument_InvalidStatus(t *testing.T) {
	docs := setupDocuments(t)

	_, err := docs.CreateDocument(context.Background(), &core.Document{Status: "archived"})
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestGetDocument_NotFound(t *testing.T) {
	docs := setupDocuments(t)

	_, err := docs.GetDocument(context.Background(), core.NewDocumentID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateDocument_WritesFulltextAndStatusTogether(t *testing.T) {
	docs := setupDocuments(t)
	ctx := context.Background()

	created, err := docs.CreateDocument(ctx, &core.Document{FileType: "txt"})
	require.NoError(t, err)

	digest := core.ContentDigest([]byte("Hello world."))
	err = docs.UpdateDocument(ctx, created.ID, "Hello world.", core.StatusProcessed, digest)
	require.NoError(t, err)

	got, err := docs.GetDocument(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello world.", got.Fulltext)
	assert.Equal(t, core.StatusProcessed, got.Status)
	assert.Equal(t, digest, got.SourceDigest)
	assert.Equal(t, "txt", got.FileType, "unrelated fields survive")
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUpdateDocument_Errors(t *testing.T) {
	docs := setupDocuments(t)
	ctx := context.Background()

	err := docs.UpdateDocument(ctx, core.NewDocumentID(), "", core.StatusFailed, "")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	created, err := docs.CreateDocument(ctx, &core.Document{})
	require.NoError(t, err)
	err = docs.UpdateDocument(ctx, created.ID, "", "done", "")
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_PathIsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	assert.ErrorContains(t, err, "is not a directory")
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
	assert.NoError(t, backend.Close(), "second close is a no-op")
}

func TestRepositories_AfterCloseReportClosed(t *testing.T) {
	docs, chunks, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	ctx := context.Background()
	_, err = docs.GetDocument(ctx, core.NewDocumentID())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = chunks.CountChunks(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestNewRepositories_RequiresBackend(t *testing.T) {
	_, _, err := NewRepositories(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)

	_, err = NewDocumentRepository(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)

	_, err = NewChunkRepository(nil)
	assert.ErrorIs(t, err, ErrBackendRequired)
}

func TestMakeChunkKey_SortsByChunkNumber(t *testing.T) {
	id := core.NewDocumentID()
	k2 := makeChunkKey(id, 2)
	k10 := makeChunkKey(id, 10)
	k256 := makeChunkKey(id, 256)

	assert.Less(t, string(k2), string(k10))
	assert.Less(t, string(k10), string(k256))
	assert.True(t, len(k2) > len(makeChunkDocumentPrefix(id)))
	assert.Equal(t, string(makeChunkDocumentPrefix(id)), string(k2[:len(makeChunkDocumentPrefix(id))]))
}

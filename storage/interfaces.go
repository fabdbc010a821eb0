package storage

import (
	"context"

	"github.com/poiesic/docingest/core"
)

// DocumentRepository provides operations for document records.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error)

	// CreateDocument registers a new document.
	// A zero ID is replaced with a fresh one, an empty status becomes
	// pending and CreatedAt is set if missing.
	// Returns ErrDuplicateKey if a document with the same ID exists.
	CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument writes fulltext, status and source digest in a single
	// call and stamps UpdatedAt.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, id core.DocumentID, fulltext string, status core.DocumentStatus, digest string) error

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository provides operations for document chunks.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// ReplaceChunks removes every chunk of documentID and inserts chunks
	// in their place. An empty chunks slice only deletes.
	ReplaceChunks(ctx context.Context, documentID core.DocumentID, chunks []*core.Chunk) error

	// GetChunks returns the chunks of a document ordered by ChunkNumber.
	// Returns an empty slice when the document has none.
	GetChunks(ctx context.Context, documentID core.DocumentID) ([]*core.Chunk, error)

	// UpdateChunkEmbeddings overwrites the embedding of existing chunks,
	// matched by ID.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunkEmbeddings(ctx context.Context, chunks ...*core.Chunk) error

	// ForEachEmbeddedChunk calls fn for every chunk carrying an embedding.
	// A zero documentID visits every document; otherwise only that
	// document's chunks are visited. Iteration stops at the first error
	// returned by fn, which is returned unchanged.
	ForEachEmbeddedChunk(ctx context.Context, documentID core.DocumentID, fn func(*core.Chunk) error) error

	// ForEachChunk calls fn for every stored chunk, embedded or not,
	// ordered by document and ChunkNumber.
	ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// Repository is a backend that stores both documents and chunks.
type Repository interface {
	DocumentRepository
	ChunkRepository
}

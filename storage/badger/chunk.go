package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository on backend.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	return newChunkRepository(backend)
}

func newChunkRepository(backend *Backend) (*ChunkRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &ChunkRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceChunks deletes a document's stale chunks and writes the new set
// through a WriteBatch. Large sets span several transactions, so a reader
// running concurrently can see a mix of old and new chunks.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, documentID core.DocumentID, chunks []*core.Chunk) error {
	if err := core.ValidateChunks(chunks); err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if chunk.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %d belongs to another document", core.ErrInvalidChunk, chunk.ChunkNumber)
		}
		keep[string(makeChunkKey(documentID, chunk.ChunkNumber))] = struct{}{}
	}

	var stale [][]byte
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDocumentPrefix(documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().KeyCopy(nil)
			// keys in the new set are overwritten below
			if _, ok := keep[string(key)]; !ok {
				stale = append(stale, key)
			}
		}
		return nil
	}, false)
	if err != nil {
		return err
	}

	return r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, key := range stale {
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
		for _, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return err
			}
			value, err := storage.MarshalChunk(chunk)
			if err != nil {
				return err
			}
			if err := wb.Set(makeChunkKey(documentID, chunk.ChunkNumber), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunks returns a document's chunks ordered by ChunkNumber.
func (r *ChunkRepository) GetChunks(ctx context.Context, documentID core.DocumentID) ([]*core.Chunk, error) {
	chunks := []*core.Chunk{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, makeChunkDocumentPrefix(documentID), func(_, val []byte) error {
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return err
			}
			chunks = append(chunks, chunk)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// UpdateChunkEmbeddings overwrites embeddings of existing chunks.
// All updates are applied in one transaction; if any chunk is missing
// none are written.
func (r *ChunkRepository) UpdateChunkEmbeddings(ctx context.Context, chunks ...*core.Chunk) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.DocumentID, chunk.ChunkNumber)
			stored, err := readChunk(tx, key)
			if err != nil {
				return err
			}
			if stored.ID != chunk.ID {
				return fmt.Errorf("%w: chunk %s", storage.ErrNotFound, chunk.ID.Hex())
			}
			stored.Embedding = chunk.Embedding
			value, err := storage.MarshalChunk(stored)
			if err != nil {
				return err
			}
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ForEachEmbeddedChunk visits embedded chunks of one document, or of all
// documents when documentID is zero.
func (r *ChunkRepository) ForEachEmbeddedChunk(ctx context.Context, documentID core.DocumentID, fn func(*core.Chunk) error) error {
	prefix := []byte(chunkPrefix)
	if !documentID.IsZero() {
		prefix = makeChunkDocumentPrefix(documentID)
	}
	return r.forEach(ctx, prefix, func(chunk *core.Chunk) error {
		if !chunk.HasEmbedding() {
			return nil
		}
		return fn(chunk)
	})
}

// ForEachChunk visits every chunk ordered by document and ChunkNumber.
func (r *ChunkRepository) ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error {
	return r.forEach(ctx, []byte(chunkPrefix), fn)
}

// CountChunks returns the total number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	var n int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		n = countPrefix(tx, []byte(chunkPrefix))
		return nil
	}, false)
	return n, err
}

func (r *ChunkRepository) forEach(ctx context.Context, prefix []byte, fn func(*core.Chunk) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		return scanPrefix(tx, prefix, func(_, val []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunk, err := storage.UnmarshalChunk(val)
			if err != nil {
				return err
			}
			return fn(chunk)
		})
	}, false)
}

// readChunk loads one chunk, mapping a missing key to storage.ErrNotFound.
func readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

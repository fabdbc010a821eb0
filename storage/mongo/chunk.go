package mongo

import (
	"context"
	"fmt"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var chunkOrder = bson.D{{Key: "documentId", Value: 1}, {Key: "chunkNumber", Value: 1}}

// ReplaceChunks deletes the document's chunks and inserts the new set.
// The two commands are not transactional; a failed insert leaves the
// document with no chunks until the next run.
func (r *Repository) ReplaceChunks(ctx context.Context, documentID core.DocumentID, chunks []*core.Chunk) error {
	if err := core.ValidateChunks(chunks); err != nil {
		return err
	}
	docs := make([]interface{}, len(chunks))
	for i, chunk := range chunks {
		if chunk.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %d belongs to another document", core.ErrInvalidChunk, chunk.ChunkNumber)
		}
		docs[i] = chunk
	}

	deleted, err := r.chunks.DeleteMany(ctx, bson.D{{Key: "documentId", Value: documentID}})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if len(docs) > 0 {
		if _, err := r.chunks.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}
	r.logger.Debug("chunks replaced",
		"document", documentID.Hex(),
		"deleted", deleted.DeletedCount,
		"inserted", len(docs))
	return nil
}

// GetChunks returns a document's chunks ordered by chunkNumber.
func (r *Repository) GetChunks(ctx context.Context, documentID core.DocumentID) ([]*core.Chunk, error) {
	cursor, err := r.chunks.Find(ctx,
		bson.D{{Key: "documentId", Value: documentID}},
		options.Find().SetSort(bson.D{{Key: "chunkNumber", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	chunks := []*core.Chunk{}
	for cursor.Next(ctx) {
		var chunk core.Chunk
		if err := cursor.Decode(&chunk); err != nil {
			return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		chunks = append(chunks, &chunk)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// UpdateChunkEmbeddings sets embeddedChunk on each chunk with one bulk write.
func (r *Repository) UpdateChunkEmbeddings(ctx context.Context, chunks ...*core.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, len(chunks))
	for i, chunk := range chunks {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: chunk.ID}}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: "embeddedChunk", Value: chunk.Embedding}}}})
	}
	res, err := r.chunks.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return err
	}
	if res.MatchedCount < int64(len(chunks)) {
		return fmt.Errorf("%w: %d of %d chunks matched", storage.ErrNotFound, res.MatchedCount, len(chunks))
	}
	return nil
}

// ForEachEmbeddedChunk visits chunks that carry an embedding.
func (r *Repository) ForEachEmbeddedChunk(ctx context.Context, documentID core.DocumentID, fn func(*core.Chunk) error) error {
	filter := bson.D{{Key: "embeddedChunk.0", Value: bson.D{{Key: "$exists", Value: true}}}}
	if !documentID.IsZero() {
		filter = append(bson.D{{Key: "documentId", Value: documentID}}, filter...)
	}
	return r.forEach(ctx, filter, fn)
}

// ForEachChunk visits every chunk ordered by document and chunkNumber.
func (r *Repository) ForEachChunk(ctx context.Context, fn func(*core.Chunk) error) error {
	return r.forEach(ctx, bson.D{}, fn)
}

// CountChunks returns the number of stored chunks.
func (r *Repository) CountChunks(ctx context.Context) (int, error) {
	n, err := r.chunks.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *Repository) forEach(ctx context.Context, filter bson.D, fn func(*core.Chunk) error) error {
	cursor, err := r.chunks.Find(ctx, filter, options.Find().SetSort(chunkOrder))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var chunk core.Chunk
		if err := cursor.Decode(&chunk); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		if err := fn(&chunk); err != nil {
			return err
		}
	}
	return cursor.Err()
}

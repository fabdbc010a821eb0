package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error) {
	var doc core.Document
	err := r.documents.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// CreateDocument registers a new document.
func (r *Repository) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc.ID.IsZero() {
		doc.ID = core.NewDocumentID()
	}
	if doc.Status == "" {
		doc.Status = core.StatusPending
	}
	if err := core.ValidateStatus(doc.Status); err != nil {
		return nil, err
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.documents.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %w", storage.ErrDuplicateKey, err)
		}
		return nil, err
	}
	return doc, nil
}

// UpdateDocument sets fulltext, status and digest with one update command.
func (r *Repository) UpdateDocument(ctx context.Context, id core.DocumentID, fulltext string, status core.DocumentStatus, digest string) error {
	if err := core.ValidateStatus(status); err != nil {
		return err
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "fulltext", Value: fulltext},
		{Key: "status", Value: status},
		{Key: "sourceDigest", Value: digest},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	res, err := r.documents.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

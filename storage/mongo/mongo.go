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


// Package mongo implements the storage repositories on MongoDB.
//
// Documents live in the "documents" collection and chunks in "chunks",
// keyed by documentId and ordered by chunkNumber.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/docingest/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default collection names.
const (
	DefaultDocumentsCollection = "documents"
	DefaultChunksCollection    = "chunks"
)

var (
	// ErrURIRequired is returned when Connect is called without a URI.
	ErrURIRequired = errors.New("mongo uri is required")

	// ErrDatabaseRequired is returned when no database is configured.
	ErrDatabaseRequired = errors.New("mongo database is required")
)

// Config describes where the collections live.
type Config struct {
	URI                 string
	Database            string
	DocumentsCollection string
	ChunksCollection    string
	ConnectTimeout      time.Duration
}

// Option configures a Repository.
type Option func(*Repository) error

// WithLogger sets the repository logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithCollections overrides the collection names.
func WithCollections(documents, chunks string) Option {
	return func(r *Repository) error {
		if documents == "" || chunks == "" {
			return errors.New("collection names cannot be empty")
		}
		r.documentsName = documents
		r.chunksName = chunks
		return nil
	}
}

// Repository implements storage.Repository on a MongoDB database.
type Repository struct {
	client        *mongo.Client
	documents     *mongo.Collection
	chunks        *mongo.Collection
	documentsName string
	chunksName    string
	logger        *slog.Logger
}

var _ storage.Repository = (*Repository)(nil)

// Connect dials MongoDB, verifies the connection and ensures the chunk
// index exists. The returned repository owns the client and disconnects
// it on Close.
func Connect(ctx context.Context, cfg Config, opts ...Option) (storage.Repository, error) {
	if cfg.URI == "" {
		return nil, ErrURIRequired
	}
	if cfg.Database == "" {
		return nil, ErrDatabaseRequired
	}
	if cfg.DocumentsCollection != "" || cfg.ChunksCollection != "" {
		opts = append([]Option{WithCollections(
			valueOr(cfg.DocumentsCollection, DefaultDocumentsCollection),
			valueOr(cfg.ChunksCollection, DefaultChunksCollection),
		)}, opts...)
	}

	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	repo, err := newRepository(client.Database(cfg.Database), opts...)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	repo.client = client

	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

// New creates a repository on an existing database handle. The caller
// keeps ownership of the client.
func New(db *mongo.Database, opts ...Option) (storage.Repository, error) {
	return newRepository(db, opts...)
}

func newRepository(db *mongo.Database, opts ...Option) (*Repository, error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}
	r := &Repository{
		documentsName: DefaultDocumentsCollection,
		chunksName:    DefaultChunksCollection,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.documents = db.Collection(r.documentsName)
	r.chunks = db.Collection(r.chunksName)
	r.logger = r.logger.With("component", "mongo")
	return r, nil
}

// EnsureIndexes creates the unique (documentId, chunkNumber) index that
// ordered chunk reads and replacements rely on.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.chunks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "documentId", Value: 1}, {Key: "chunkNumber", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create chunk index: %w", err)
	}
	return nil
}

// Close disconnects the client when the repository owns it.
func (r *Repository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Disconnect(context.Background())
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

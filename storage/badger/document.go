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


package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository on backend.
// The backend is shared and stays open when the repository is closed.
func NewDocumentRepository(backend *Backend) (storage.DocumentRepository, error) {
	return newDocumentRepository(backend)
}

func newDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &DocumentRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *DocumentRepository) Close() error {
	return nil
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.DocumentID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
		return err
	}, false)
	return result, err
}

// CreateDocument registers a new document.
func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
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

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.ID)
		_, err := tx.Get(key)
		if err == nil {
			return storage.ErrDuplicateKey
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument writes fulltext, status and digest in one transaction.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, id core.DocumentID, fulltext string, status core.DocumentStatus, digest string) error {
	if err := core.ValidateStatus(status); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		doc.Fulltext = fulltext
		doc.Status = status
		doc.SourceDigest = digest
		doc.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalDocument(doc)
		if err != nil {
			return err
		}
		if err := tx.Set(makeDocumentKey(id), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readDocument loads one document, mapping a missing key to storage.ErrNotFound.
func readDocument(tx *badger.Txn, id core.DocumentID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

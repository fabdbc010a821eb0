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


// Package storage provides the storage abstraction layer for docingest.
//
// This package defines repository interfaces that decouple the ingestion
// pipeline from the document database. Two backends implement them:
//
//   - storage/mongo: the production MongoDB database, collections
//     "documents" and "chunks"
//   - storage/badger: an embedded BadgerDB store for local runs and tests
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	repo, err := mongo.Connect(ctx, cfg)   // returns storage.Repository
//	docs, err := badger.NewDocumentRepository(backend)
//
// Internal package constructors (newChunkRepository, ...) may return
// concrete types since they're only used within the implementation package.
//
// # Architecture
//
//   - DocumentRepository: lookup, registration and the single-call
//     fulltext+status update
//   - ChunkRepository: replace-by-document, ordered reads, embedding
//     updates and full scans used by search and re-embedding
//   - Repository: a backend serving both
//
// Records are serialized as BSON everywhere, so the field names a
// badger store holds match the MongoDB collections.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	docs, chunks, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage

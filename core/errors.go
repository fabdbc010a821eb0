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


package core

import "errors"

// Ingestion errors
var (
	// ErrUnsupportedFileType indicates no extraction strategy handles the file type.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrInvalidIdentifier indicates a malformed document identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrDocumentNotFound indicates the document is not registered.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNoContentExtracted indicates extraction produced no chunkable text.
	ErrNoContentExtracted = errors.New("no content extracted")

	// ErrEmbeddingService indicates the embedding call failed or returned
	// vectors that cannot be mapped back onto the chunks.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrPartialExtraction indicates some pages or segments failed.
	// It is never fatal on its own.
	ErrPartialExtraction = errors.New("partial extraction failure")

	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the chunk text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidChunkNumber indicates chunk numbering is not 1-based and contiguous.
	ErrInvalidChunkNumber = errors.New("invalid chunk number")

	// ErrInvalidStatus indicates an unknown DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")
)

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

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ParseDocumentID parses a 24 character hex string into a DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return id, nil
}

// NormalizeFileType lower-cases a file type tag and strips a leading dot,
// so ".PDF", "pdf" and "Pdf" all compare equal.
func NormalizeFileType(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "."))
}

// ValidateStatus validates that a DocumentStatus has a known value.
func ValidateStatus(status DocumentStatus) error {
	switch status {
	case StatusPending, StatusProcessed, StatusFailed:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - ChunkNumber must be positive
//
// NOT validated (populated later):
//   - Embedding (absent until the embedding step runs)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if chunk.ChunkNumber < 1 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidChunk, ErrInvalidChunkNumber, chunk.ChunkNumber)
	}

	return nil
}

// ValidateChunks validates a document's full chunk set: every chunk is valid,
// belongs to the same document, is numbered 1..n in order, and all embedded
// chunks share one dimensionality.
func ValidateChunks(chunks []*Chunk) error {
	dim := -1
	for i, chunk := range chunks {
		if err := ValidateChunk(chunk); err != nil {
			return err
		}
		if chunk.DocumentID != chunks[0].DocumentID {
			return fmt.Errorf("%w: chunk %d belongs to another document", ErrInvalidChunk, chunk.ChunkNumber)
		}
		if chunk.ChunkNumber != i+1 {
			return fmt.Errorf("%w: %w: expected %d, got %d",
				ErrInvalidChunk, ErrInvalidChunkNumber, i+1, chunk.ChunkNumber)
		}
		if !chunk.HasEmbedding() {
			continue
		}
		if dim == -1 {
			dim = len(chunk.Embedding)
		} else if len(chunk.Embedding) != dim {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, chunk.ChunkNumber, len(chunk.Embedding), dim)
		}
	}
	return nil
}

package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentID identifies a registered document. Documents are created by the
// upload front end, which uses MongoDB ObjectIDs as keys.
type DocumentID = primitive.ObjectID

// NewDocumentID returns a fresh, time-ordered document identifier.
func NewDocumentID() DocumentID {
	return primitive.NewObjectID()
}

// ContentDigest returns the hex BLAKE2b-256 digest of raw source bytes.
// Identical uploads produce identical digests.
func ContentDigest(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentStatus tracks where a document is in the ingestion lifecycle.
type DocumentStatus string

const (
	// StatusPending is the state of a freshly registered document.
	StatusPending DocumentStatus = "pending"
	// StatusProcessed means fulltext was extracted and chunks were persisted.
	StatusProcessed DocumentStatus = "processed"
	// StatusFailed means the last ingestion run produced no usable content.
	StatusFailed DocumentStatus = "failed"
)

// Document is an uploaded file as seen by the document database.
type Document struct {
	ID           DocumentID     `bson:"_id"`
	Fulltext     string         `bson:"fulltext"`
	Status       DocumentStatus `bson:"status"`
	FileType     string         `bson:"fileType,omitempty"`
	SourceDigest string         `bson:"sourceDigest,omitempty"`
	CreatedAt    time.Time      `bson:"creationDate"`
	UpdatedAt    time.Time      `bson:"updatedAt,omitempty"`
}

// Chunk is one sentence-level slice of a document's fulltext.
// ChunkNumber is 1-based and contiguous within a document.
type Chunk struct {
	ID           primitive.ObjectID `bson:"_id"`
	DocumentID   DocumentID         `bson:"documentId"`
	Text         string             `bson:"text"`
	ChunkNumber  int                `bson:"chunkNumber"`
	CreationDate time.Time          `bson:"creationDate"`
	Embedding    []float32          `bson:"embeddedChunk,omitempty"`
}

// HasEmbedding reports whether the chunk has been embedded.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// NewChunks builds chunk records for texts in order, numbering them from 1.
func NewChunks(documentID DocumentID, texts []string, now time.Time) []*Chunk {
	chunks := make([]*Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &Chunk{
			ID:           primitive.NewObjectID(),
			DocumentID:   documentID,
			Text:         text,
			ChunkNumber:  i + 1,
			CreationDate: now,
		}
	}
	return chunks
}

// SimilarityResult is a candidate identifier paired with its cosine similarity.
type SimilarityResult struct {
	ID    string
	Score float32
}

// SearchResult is a chunk match with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

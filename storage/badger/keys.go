package badger

import (
	"encoding/binary"

	"github.com/poiesic/docingest/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "doc:"
	chunkPrefix    = "chk:"
)

// makeDocumentKey generates a key for a document by ID.
// Format: doc:<hex id>
func makeDocumentKey(id core.DocumentID) []byte {
	return []byte(documentPrefix + id.Hex())
}

// makeChunkDocumentPrefix generates the prefix shared by all chunks of a document.
// Format: chk:<hex document id>:
func makeChunkDocumentPrefix(documentID core.DocumentID) []byte {
	return []byte(chunkPrefix + documentID.Hex() + ":")
}

// makeChunkKey generates a composite key for a chunk.
// Format: chk:<hex document id>:<chunk number>
func makeChunkKey(documentID core.DocumentID, chunkNumber int) []byte {
	prefix := makeChunkDocumentPrefix(documentID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort follows chunk order
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkNumber))
	return buf
}

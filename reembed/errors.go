package reembed

import "errors"

var (
	// ErrChunkRepositoryRequired is returned when no chunk repository is supplied.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder required")
)

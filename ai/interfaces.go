package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VisionExtractor reads the text visible in an image.
// Implementations must be thread-safe for concurrent use.
type VisionExtractor interface {
	// ExtractText transcribes the text of the image at imageURL verbatim,
	// using OCRInstruction. A blank image yields an empty string.
	ExtractText(ctx context.Context, imageURL string) (string, error)
}

// Transcriber converts speech to text.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe returns the transcript of one audio clip. filename carries
	// the container extension the service uses to pick a decoder.
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// VisionExtractor returns the image transcription service.
	VisionExtractor() VisionExtractor

	// Transcriber returns the speech-to-text service.
	Transcriber() Transcriber

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}

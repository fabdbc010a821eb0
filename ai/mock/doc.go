// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder,
// ai.VisionExtractor, ai.Transcriber and ai.AIProvider for use in unit
// tests. The mocks allow tests to run without external AI service
// dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vector, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	vision := mock.NewMockVisionExtractor()
//	vision.ExtractTextFunc = func(ctx context.Context, url string) (string, error) {
//	    return "", errors.New("rate limited")
//	}
//
//	// Check calls
//	count := vision.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: returns unit-length deterministic vectors based on text hash
//   - MockVisionExtractor: returns "text of <url>"
//   - MockTranscriber: returns "transcript of <filename>"
//
// All mocks record calls under a mutex and are safe for concurrent use.
package mock

package mock

import (
	"context"
	"sync"
)

// MockVisionExtractor is a test double for ai.VisionExtractor.
type MockVisionExtractor struct {
	// ExtractTextFunc is called by ExtractText if set.
	// If nil, returns "text of <imageURL>".
	ExtractTextFunc func(ctx context.Context, imageURL string) (string, error)

	mu   sync.Mutex
	urls []string
}

// NewMockVisionExtractor creates a mock vision extractor with default behavior.
func NewMockVisionExtractor() *MockVisionExtractor {
	return &MockVisionExtractor{}
}

// ExtractText records the URL and returns the injected or default text.
func (m *MockVisionExtractor) ExtractText(ctx context.Context, imageURL string) (string, error) {
	m.mu.Lock()
	m.urls = append(m.urls, imageURL)
	m.mu.Unlock()

	if m.ExtractTextFunc != nil {
		return m.ExtractTextFunc(ctx, imageURL)
	}
	return "text of " + imageURL, nil
}

// CallCount returns the number of ExtractText calls.
func (m *MockVisionExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urls)
}

// URLs returns the image URLs received, in call order.
func (m *MockVisionExtractor) URLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockVisionExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = nil
	m.ExtractTextFunc = nil
}

package mock

import (
	"context"
	"sync"
)

// MockTranscriber is a test double for ai.Transcriber.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, returns "transcript of <filename>".
	TranscribeFunc func(ctx context.Context, audio []byte, filename string) (string, error)

	mu    sync.Mutex
	files []string
}

// NewMockTranscriber creates a mock transcriber with default behavior.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe records the file name and returns the injected or default text.
func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	m.mu.Lock()
	m.files = append(m.files, filename)
	m.mu.Unlock()

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, filename)
	}
	return "transcript of " + filename, nil
}

// CallCount returns the number of Transcribe calls.
func (m *MockTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

// Files returns the file names received, in call order.
func (m *MockTranscriber) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.files...)
}

// Reset clears recorded calls and injected behavior.
func (m *MockTranscriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = nil
	m.TranscribeFunc = nil
}

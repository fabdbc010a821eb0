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


package mock

import "github.com/poiesic/docingest/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, vision extractor and transcriber instances.
type MockProvider struct {
	embedder    *MockEmbedder
	vision      *MockVisionExtractor
	transcriber *MockTranscriber
	closed      bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use the GetMock accessors to reach concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return NewMockProviderWithServices(NewMockEmbedder(), NewMockVisionExtractor(), NewMockTranscriber())
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, vision *MockVisionExtractor, transcriber *MockTranscriber) ai.AIProvider {
	return &MockProvider{
		embedder:    embedder,
		vision:      vision,
		transcriber: transcriber,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// VisionExtractor returns the mock vision extractor.
func (p *MockProvider) VisionExtractor() ai.VisionExtractor {
	return p.vision
}

// Transcriber returns the mock transcriber.
func (p *MockProvider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockVisionExtractor returns the underlying mock vision extractor for test assertions.
func (p *MockProvider) GetMockVisionExtractor() *MockVisionExtractor {
	return p.vision
}

// GetMockTranscriber returns the underlying mock transcriber for test assertions.
func (p *MockProvider) GetMockTranscriber() *MockTranscriber {
	return p.transcriber
}

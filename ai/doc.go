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


// Package ai provides abstractions for the model services the ingestion
// pipeline calls: text embeddings, page-image transcription and speech
// transcription.
//
// # Interfaces
//
//   - Embedder: generates vector embeddings from text, in batches
//   - VisionExtractor: transcribes the text visible in an image URL
//   - Transcriber: converts an audio clip to text
//   - AIProvider: aggregates the three services and owns their lifecycle
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs (langchaingo for embeddings and
//     vision, go-openai for Whisper transcription)
//   - ai/gemini: Google Gemini through generative-ai-go
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Production constructors (NewProvider, NewEmbedder, ...) return the
// interface type so callers cannot couple to implementation details. Mock
// constructors return concrete types so tests can inject behavior and
// inspect call counts.
//
// # Configuration
//
// Config is built with functional options on top of DefaultConfig:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithEmbeddingModel("nomic-embed-text"),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// Validate normalizes OpenAI-compatible hosts to end in /v1.
//
// # Thread Safety
//
// All implementations are safe for concurrent use; the extraction
// strategies call VisionExtractor and Transcriber from many goroutines.
package ai

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


// Package openai provides AI service implementations using OpenAI-compatible APIs.
//
// Embeddings and page-image transcription go through the langchaingo
// library, so any OpenAI-compatible server (Ollama, LocalAI, vLLM) works.
// Speech transcription uses go-openai's audio endpoint, which langchaingo
// does not cover.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	text, err := provider.VisionExtractor().ExtractText(ctx, presignedURL)
//	transcript, err := provider.Transcriber().Transcribe(ctx, clip, "segment-000.mp3")
package openai

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


// Package search ranks stored chunks against a query by cosine similarity.
//
// Rank is the pure ranking step: it scores candidate vectors, sorts them
// stably by descending score and truncates to topK. Searcher wraps it
// with query embedding (cached in an LRU), candidate loading from a
// ChunkRepository and optional restriction to a single document.
package search

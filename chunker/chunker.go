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


// Package chunker splits extracted document text into sentence-level chunks.
package chunker

import (
	"regexp"
	"strings"
)

// boundary matches a sentence terminator followed by the whitespace run that
// separates it from the next sentence. RE2's \s is ASCII only, so the class
// adds vertical tab, the information separators, NEL and every Unicode
// space or line/paragraph separator (NBSP, U+2000-U+200A, U+3000, ...).
var boundary = regexp.MustCompile(`[.!?][\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)

// Split returns the sentences of text in order. The terminating punctuation
// stays with its sentence and separating whitespace is dropped. Text with no
// terminator is returned as a single chunk. Empty or whitespace-only text
// yields an empty slice.
func Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	matches := boundary.FindAllStringIndex(text, -1)
	chunks := make([]string, 0, len(matches)+1)
	start := 0
	for _, m := range matches {
		// m[0] is the punctuation byte, which is always ASCII
		chunks = append(chunks, text[start:m[0]+1])
		start = m[1]
	}
	if start < len(text) {
		chunks = append(chunks, text[start:])
	}
	return chunks
}

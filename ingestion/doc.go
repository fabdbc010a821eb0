// Package ingestion provides pipeline orchestration for processing uploaded documents.
//
// A Pipeline run for one object key:
//   - resolves the document id from the key and looks the document up
//   - fetches the object bytes and picks the file type
//   - extracts text through the extraction dispatcher
//   - splits the text into sentence chunks
//   - embeds every chunk in one batched call
//   - replaces the document's chunks and records fulltext and status
//
// Page and segment failures inside extraction degrade the text without
// failing the run. Lookup and embedding failures abort the run before
// anything is written.
package ingestion

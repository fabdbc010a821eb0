// Package reembed regenerates the embeddings of stored chunks, for example
// after switching to a new embedding model.
//
// Chunks are streamed from the repository in batches, embedded with retry
// and exponential backoff, normalized to unit length and written back in
// place. Progress is reported to an io.Writer.
package reembed

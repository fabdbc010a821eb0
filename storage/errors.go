package storage

import "errors"

// Repository errors shared by the badger and mongo backends. Callers match
// them with errors.Is; backends wrap driver errors underneath.
var (
	// ErrNotFound is returned for a missing document or chunk.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicateKey is returned when CreateDocument meets an existing ID.
	ErrDuplicateKey = errors.New("storage: duplicate document id")

	// ErrStorageClosed is returned by every call made after Close.
	ErrStorageClosed = errors.New("storage: backend is closed")

	// ErrSerializationFailed wraps bson encode and decode failures.
	ErrSerializationFailed = errors.New("storage: bson serialization failed")
)

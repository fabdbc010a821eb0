package taskrunner

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidConcurrency is returned when the concurrency bound is < 1.
	ErrInvalidConcurrency = errors.New("max concurrency must be at least 1")

	// ErrWorkerRequired is returned when RunAll is called without a worker.
	ErrWorkerRequired = errors.New("worker required")

	// ErrWorkerPanic wraps a value recovered from a panicking worker.
	ErrWorkerPanic = errors.New("worker panicked")
)

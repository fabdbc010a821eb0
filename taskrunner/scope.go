package taskrunner

import (
	"context"
	"errors"
	"fmt"
)

// Scope collects cleanup functions for a single work item.
// A Scope is owned by one worker and is not safe for concurrent use.
type Scope struct {
	cleanups []func(ctx context.Context) error
	closed   bool
}

// Defer registers fn to run after the worker returns. Cleanups run in
// reverse registration order, each exactly once.
func (s *Scope) Defer(fn func(ctx context.Context) error) {
	if fn == nil || s.closed {
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// close runs every registered cleanup and joins their errors.
// Subsequent calls are no-ops.
func (s *Scope) close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		if err := runCleanup(ctx, s.cleanups[i]); err != nil {
			errs = append(errs, err)
		}
	}
	s.cleanups = nil
	return errors.Join(errs...)
}

func runCleanup(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup panicked: %v", r)
		}
	}()
	return fn(ctx)
}

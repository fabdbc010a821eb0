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


package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxConcurrency is used when WithMaxConcurrency is not given.
const DefaultMaxConcurrency = 4

// Worker processes one item. index is the item's position in the input.
type Worker[I, O any] func(ctx context.Context, scope *Scope, index int, item I) (O, error)

// Result is the outcome of one item. Results are returned in input order.
type Result[O any] struct {
	Index int
	Value O
	Err   error

	// CleanupErr holds failures of deferred cleanup. It never turns a
	// successful result into a failed one.
	CleanupErr error
}

// OK reports whether the worker succeeded.
func (r Result[O]) OK() bool {
	return r.Err == nil
}

type config struct {
	maxConcurrency int
	timeout        time.Duration
	limiter        *rate.Limiter
	logger         *slog.Logger
}

// Option configures a RunAll invocation.
type Option func(*config) error

// WithMaxConcurrency bounds the number of workers in flight.
// Default is DefaultMaxConcurrency.
func WithMaxConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidConcurrency, n)
		}
		c.maxConcurrency = n
		return nil
	}
}

// WithTimeout bounds each worker call. An expired deadline is a failure of
// that item only. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.timeout = d
		return nil
	}
}

// WithRateLimit paces worker starts to rps per second with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) error {
		if rps <= 0 {
			c.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithLimiter shares an existing limiter across invocations, so that
// concurrent documents draw from one provider budget.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *config) error {
		c.limiter = l
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// RunAll runs worker over items with bounded concurrency and returns one
// Result per item, in input order. The returned error is non-nil only when
// the invocation could not be set up; item failures live in the results.
func RunAll[I, O any](ctx context.Context, items []I, worker Worker[I, O], opts ...Option) ([]Result[O], error) {
	if worker == nil {
		return nil, ErrWorkerRequired
	}

	cfg := &config{
		maxConcurrency: DefaultMaxConcurrency,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results, nil
	}

	size := min(cfg.maxConcurrency, len(items))
	pool, err := ants.NewPool(size, ants.WithLogger(antsLogger{cfg.logger}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		// Submit blocks while all workers are busy.
		submitErr := pool.Submit(func() {
			defer wg.Done()
			results[i] = runOne(ctx, cfg, worker, i, item)
		})
		if submitErr != nil {
			wg.Done()
			results[i] = Result[O]{Index: i, Err: submitErr}
		}
	}
	wg.Wait()

	return results, nil
}

// runOne executes a single item and always closes its scope.
func runOne[I, O any](ctx context.Context, cfg *config, worker Worker[I, O], index int, item I) (res Result[O]) {
	res.Index = index
	scope := &Scope{}

	defer func() {
		res.CleanupErr = scope.close(context.WithoutCancel(ctx))
		if res.CleanupErr != nil {
			cfg.logger.Warn("cleanup failed", "index", index, "err", res.CleanupErr)
		}
	}()

	if cfg.limiter != nil {
		if err := cfg.limiter.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	itemCtx := ctx
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	res.Value, res.Err = call(itemCtx, worker, scope, index, item)
	if res.Err != nil {
		cfg.logger.Debug("work item failed", "index", index, "err", res.Err)
	}
	return res
}

func call[I, O any](ctx context.Context, worker Worker[I, O], scope *Scope, index int, item I) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero O
			out = zero
			err = fmt.Errorf("%w: %v", ErrWorkerPanic, r)
		}
	}()
	return worker(ctx, scope, index, item)
}

// Values returns the value of every result, using the zero value for
// failed items, so the output stays aligned with the input.
func Values[O any](results []Result[O]) []O {
	values := make([]O, len(results))
	for i, r := range results {
		if r.Err == nil {
			values[i] = r.Value
		}
	}
	return values
}

// Failed returns the indices of failed items in ascending order.
func Failed[O any](results []Result[O]) []int {
	var failed []int
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.Index)
		}
	}
	return failed
}

// Errors joins item failures, tagging each with its index.
// Returns nil when every item succeeded.
func Errors[O any](results []Result[O]) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", r.Index, r.Err))
		}
	}
	return errors.Join(errs...)
}

// antsLogger routes ants' internal messages into slog.
type antsLogger struct {
	logger *slog.Logger
}

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "pool", "ants")
}

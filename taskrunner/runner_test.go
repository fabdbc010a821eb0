package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll_PreservesInputOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	results, err := RunAll(context.Background(), items,
		func(ctx context.Context, _ *Scope, index int, item int) (string, error) {
			// Finish in a scrambled order.
			time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
			return fmt.Sprintf("item-%d", item), nil
		},
		WithMaxConcurrency(8),
	)
	require.NoError(t, err)
	require.Len(t, results, len(items))

	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("item-%d", i), r.Value)
	}
}

func TestRunAll_FailuresStayInTheirSlots(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}
	failing := map[int]bool{1: true, 4: true}

	var ran atomic.Int32
	results, err := RunAll(context.Background(), items,
		func(ctx context.Context, _ *Scope, index int, item string) (string, error) {
			ran.Add(1)
			if failing[index] {
				return "", fmt.Errorf("cannot process %s", item)
			}
			return item + item, nil
		},
		WithMaxConcurrency(2),
	)
	require.NoError(t, err)
	require.Len(t, results, len(items))

	// No sibling was aborted.
	assert.Equal(t, int32(len(items)), ran.Load())

	for i, r := range results {
		if failing[i] {
			assert.Error(t, r.Err)
			assert.False(t, r.OK())
			assert.Empty(t, r.Value)
			continue
		}
		assert.NoError(t, r.Err)
		assert.Equal(t, items[i]+items[i], r.Value)
	}

	assert.Equal(t, []int{1, 4}, Failed(results))
	assert.Equal(t, []string{"aa", "", "cc", "dd", "", "ff"}, Values(results))

	joined := Errors(results)
	require.Error(t, joined)
	assert.Contains(t, joined.Error(), "item 1")
	assert.Contains(t, joined.Error(), "item 4")
}

func TestRunAll_CleanupRunsExactlyOnce(t *testing.T) {
	const n = 30
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	cleanups := make([]atomic.Int32, n)

	results, err := RunAll(context.Background(), items,
		func(ctx context.Context, s *Scope, index int, item int) (int, error) {
			s.Defer(func(ctx context.Context) error {
				cleanups[index].Add(1)
				return nil
			})
			switch item % 3 {
			case 0:
				return item, nil
			case 1:
				return 0, errors.New("failed")
			default:
				panic("worker blew up")
			}
		},
		WithMaxConcurrency(5),
	)
	require.NoError(t, err)
	require.Len(t, results, n)

	for i := range cleanups {
		assert.Equal(t, int32(1), cleanups[i].Load(), "cleanup for item %d", i)
	}
	for i, r := range results {
		switch i % 3 {
		case 0:
			assert.NoError(t, r.Err)
		case 1:
			assert.Error(t, r.Err)
		default:
			assert.ErrorIs(t, r.Err, ErrWorkerPanic)
		}
	}
}

func TestRunAll_CleanupOrderAndErrors(t *testing.T) {
	var mu sync.Mutex
	var order []string

	record := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return err
		}
	}

	results, err := RunAll(context.Background(), []int{1},
		func(ctx context.Context, s *Scope, _ int, _ int) (string, error) {
			s.Defer(record("first", nil))
			s.Defer(record("second", errors.New("delete failed")))
			return "done", nil
		},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, []string{"second", "first"}, order)
	assert.NoError(t, results[0].Err, "cleanup failure must not fail the item")
	assert.Equal(t, "done", results[0].Value)
	assert.ErrorContains(t, results[0].CleanupErr, "delete failed")
}

func TestRunAll_CleanupSurvivesItemTimeout(t *testing.T) {
	var cleanupCtxErr error
	results, err := RunAll(context.Background(), []int{1},
		func(ctx context.Context, s *Scope, _ int, _ int) (int, error) {
			s.Defer(func(ctx context.Context) error {
				cleanupCtxErr = ctx.Err()
				return nil
			})
			<-ctx.Done()
			return 0, ctx.Err()
		},
		WithTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)

	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.NoError(t, cleanupCtxErr, "cleanup context must outlive the item deadline")
}

func TestRunAll_TimeoutIsPerItem(t *testing.T) {
	results, err := RunAll(context.Background(), []time.Duration{0, 200 * time.Millisecond, 0},
		func(ctx context.Context, _ *Scope, _ int, wait time.Duration) (string, error) {
			select {
			case <-time.After(wait):
				return "ok", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
		WithTimeout(20*time.Millisecond),
		WithMaxConcurrency(3),
	)
	require.NoError(t, err)

	assert.Equal(t, "ok", results[0].Value)
	assert.ErrorIs(t, results[1].Err, context.DeadlineExceeded)
	assert.Equal(t, "ok", results[2].Value)
}

func TestRunAll_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	_, err := RunAll(context.Background(), items,
		func(ctx context.Context, _ *Scope, _ int, _ int) (struct{}, error) {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return struct{}{}, nil
		},
		WithMaxConcurrency(3),
	)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestRunAll_RateLimit(t *testing.T) {
	start := time.Now()
	_, err := RunAll(context.Background(), []int{1, 2, 3, 4},
		func(ctx context.Context, _ *Scope, _ int, _ int) (int, error) {
			return 0, nil
		},
		WithMaxConcurrency(4),
		WithRateLimit(50, 1),
	)
	require.NoError(t, err)

	// Three waits of 20ms after the initial token.
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRunAll_EmptyInput(t *testing.T) {
	results, err := RunAll(context.Background(), []int{},
		func(ctx context.Context, _ *Scope, _ int, _ int) (int, error) {
			t.Fatal("worker should not run")
			return 0, nil
		},
	)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRunAll_InvalidSetup(t *testing.T) {
	_, err := RunAll[int, int](context.Background(), []int{1}, nil)
	assert.ErrorIs(t, err, ErrWorkerRequired)

	_, err = RunAll(context.Background(), []int{1},
		func(ctx context.Context, _ *Scope, _ int, _ int) (int, error) { return 0, nil },
		WithMaxConcurrency(0),
	)
	assert.ErrorIs(t, err, ErrInvalidConcurrency)
}

func TestRunAll_CanceledContextFailsItemsNotSetup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := RunAll(ctx, []int{1, 2},
		func(ctx context.Context, _ *Scope, _ int, item int) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return item, nil
		},
	)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestScope_DeferAfterCloseIsIgnored(t *testing.T) {
	s := &Scope{}
	calls := 0
	s.Defer(func(context.Context) error { calls++; return nil })
	require.NoError(t, s.close(context.Background()))
	require.NoError(t, s.close(context.Background()))

	s.Defer(func(context.Context) error { calls++; return nil })
	assert.Equal(t, 1, calls)
}

func TestScope_CleanupPanicIsReported(t *testing.T) {
	s := &Scope{}
	s.Defer(func(context.Context) error { panic("oops") })
	err := s.close(context.Background())
	assert.ErrorContains(t, err, "cleanup panicked")
}

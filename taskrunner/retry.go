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
	"log/slog"
	"time"
)

// MaxRetryDelay caps the wait between two attempts.
const MaxRetryDelay = 30 * time.Second

// backoff returns the wait before attempt+1: base doubled per failed
// attempt, capped at MaxRetryDelay. Shifts that would overflow return the cap.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if base >= MaxRetryDelay {
		return MaxRetryDelay
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= MaxRetryDelay {
			return MaxRetryDelay
		}
	}
	return delay
}

// Retry calls operation until it succeeds, maxAttempts is reached or ctx is
// done. The wait between attempts starts at baseDelay and doubles, up to
// MaxRetryDelay. The last operation error is returned when every attempt
// fails; ErrInvalidMaxAttempts when maxAttempts is below one.
func Retry(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = operation(); err == nil {
			if attempt > 1 {
				slog.Debug("retry succeeded", "attempt", attempt)
			}
			return nil
		}
		if attempt == maxAttempts {
			return err
		}

		delay := backoff(baseDelay, attempt)
		slog.Debug("attempt failed", "attempt", attempt, "max_attempts", maxAttempts, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// errAbortRetry marks failures that must not be retried, such as the
// downstream queue going away mid-fetch.
var errAbortRetry = errors.New("non-retryable failure")

// nonRetryable wraps err so withRetry gives up immediately.
func nonRetryable(err error) error {
	return fmt.Errorf("%w: %w", errAbortRetry, err)
}

// withRetry runs fn up to attempts times with a cooldown between failures.
// Cancellation always wins over retry: once ctx is done the error is
// returned immediately, with no cooldown sleep and no further attempt.
// After exhaustion the last error is wrapped in ErrAttemptsExhausted.
func withRetry(ctx context.Context, attempts int, cooldown time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(lastErr, errAbortRetry) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		log.Debug("fetch: attempt failed, cooling down",
			"attempt", attempt, "of", attempts, "cooldown", cooldown, "err", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cooldown):
		}
	}

	return fmt.Errorf("%w (%d attempts): %w", ErrAttemptsExhausted, attempts, lastErr)
}

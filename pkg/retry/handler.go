package retry

import (
	"context"
	"fmt"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
	"github.com/rohmanhakim/stream-harvester/pkg/timeutil"
)

// Retry executes fn up to MaxAttempts times, waiting a fixed Delay between
// attempts. Only retryable errors trigger another attempt; a non-retryable
// error is returned as-is. When every attempt fails the result carries a
// RetryError with cause ErrExhaustedAttempts wrapping the last error.
//
// fn receives the 1-based attempt number. observer may be nil.
func Retry[T any](
	ctx context.Context,
	retryParam RetryParam,
	fn func(attempt int) (T, failure.ClassifiedError),
	observer AttemptObserver,
) Result[T] {
	if retryParam.MaxAttempts < 1 {
		return Result[T]{
			err: &RetryError{
				Message:   "max attempt cannot be 0",
				Cause:     ErrZeroAttempt,
				Retryable: false,
			},
		}
	}

	var lastErr failure.ClassifiedError
	attempt := 0
	for attempt < retryParam.MaxAttempts {
		attempt++
		value, err := fn(attempt)
		if err == nil {
			return Result[T]{value: value, attempts: attempt}
		}
		lastErr = err

		retryable := isErrorRetryable(err)
		willRetry := retryable && attempt < retryParam.MaxAttempts
		if observer != nil {
			observer(attempt, err, willRetry)
		}

		if !retryable {
			return Result[T]{err: err, attempts: attempt}
		}
		if !willRetry {
			break
		}

		if sleepErr := timeutil.Sleep(ctx, retryParam.Delay); sleepErr != nil {
			return Result[T]{
				err: &RetryError{
					Message:   fmt.Sprintf("stopped after %d attempts: %v", attempt, sleepErr),
					Cause:     ErrCancelled,
					Retryable: false,
					Attempts:  attempt,
					LastErr:   lastErr,
				},
				attempts: attempt,
			}
		}
	}

	return Result[T]{
		err: &RetryError{
			Message:   fmt.Sprintf("exhausted %d attempts. Last error: %v", retryParam.MaxAttempts, lastErr),
			Cause:     ErrExhaustedAttempts,
			Retryable: false,
			Attempts:  attempt,
			LastErr:   lastErr,
		},
		attempts: attempt,
	}
}

// isErrorRetryable checks if an error should be retried.
// Errors that do not expose IsRetryable are treated as retryable.
func isErrorRetryable(err failure.ClassifiedError) bool {
	type hasRetryable interface {
		IsRetryable() bool
	}

	if r, ok := err.(hasRetryable); ok {
		return r.IsRetryable()
	}
	return true
}

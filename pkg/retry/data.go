package retry

import (
	"time"

	"github.com/rohmanhakim/stream-harvester/pkg/failure"
)

// RetryParam holds the parameters for retry logic.
// These parameters are passed from outside (e.g., config) and should not
// be known by the retry handler internally.
//
// Delay is a fixed interval between attempts. There is no jitter and no
// backoff growth; callers wanting backoff vary Delay themselves.
type RetryParam struct {
	Delay       time.Duration
	MaxAttempts int
}

// NewRetryParam creates a new RetryParam with the given settings.
func NewRetryParam(delay time.Duration, maxAttempts int) RetryParam {
	return RetryParam{
		Delay:       delay,
		MaxAttempts: maxAttempts,
	}
}

// Result is the outcome of a retried call.
type Result[T any] struct {
	value    T
	err      failure.ClassifiedError
	attempts int
}

func (r Result[T]) Value() T {
	return r.value
}

func (r Result[T]) Err() failure.ClassifiedError {
	return r.err
}

// Attempts is the number of times the function was invoked.
func (r Result[T]) Attempts() int {
	return r.attempts
}

func (r Result[T]) IsFailure() bool {
	return r.err != nil
}

// AttemptObserver is notified after every failed attempt.
// willRetry is false for the final failure.
type AttemptObserver func(attempt int, err failure.ClassifiedError, willRetry bool)

package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/rohmanhakim/stream-harvester/pkg/timeutil"
)

// RateLimiter
// Specialized component to keep requests to one host apart.
// Responsibilities:
// - Bookkeep each hostname's last fetch timestamp
// - Compute the remaining delay for each hostname
// - Block callers until their host slot opens
type RateLimiter interface {
	SetHostDelay(host string, delay time.Duration)
	MarkLastFetchAsNow(host string)
	Wait(ctx context.Context, host string) error
}

type ConcurrentRateLimiter struct {
	mu          sync.Mutex
	baseDelay   time.Duration
	hostTimings map[string]hostTiming
	now         func() time.Time
}

func NewConcurrentRateLimiter(baseDelay time.Duration) *ConcurrentRateLimiter {
	return &ConcurrentRateLimiter{
		baseDelay:   baseDelay,
		hostTimings: make(map[string]hostTiming),
		now:         time.Now,
	}
}

// SetHostDelay sets a delay for one host, applied when larger than the base delay.
func (r *ConcurrentRateLimiter) SetHostDelay(host string, delay time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	timing.hostDelay = delay
	r.hostTimings[host] = timing
}

// MarkLastFetchAsNow records a finished request to host. A slot already
// booked further in the future by Wait is kept.
func (r *ConcurrentRateLimiter) MarkLastFetchAsNow(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	timing := r.hostTimings[host]
	if now := r.now(); now.After(timing.lastFetchAt) {
		timing.lastFetchAt = now
	}
	r.hostTimings[host] = timing
}

// remaining must be called with r.mu held.
func (r *ConcurrentRateLimiter) remaining(host string, now time.Time) time.Duration {
	timing, exists := r.hostTimings[host]
	if !exists || timing.lastFetchAt.IsZero() {
		return 0
	}
	delay := timing.delay(r.baseDelay)
	elapsed := now.Sub(timing.lastFetchAt)
	if elapsed < delay {
		return delay - elapsed
	}
	return 0
}

// Wait reserves the next slot for host and sleeps until it opens.
// Reservation happens under the lock, so concurrent callers for the same
// host are spaced out instead of all waking at once.
func (r *ConcurrentRateLimiter) Wait(ctx context.Context, host string) error {
	r.mu.Lock()
	now := r.now()
	wait := r.remaining(host, now)
	timing := r.hostTimings[host]
	timing.lastFetchAt = now.Add(wait)
	r.hostTimings[host] = timing
	r.mu.Unlock()

	return timeutil.Sleep(ctx, wait)
}

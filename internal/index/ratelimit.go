package index

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements token-bucket rate limiting for index requests.
// The bucket starts full; each request consumes a token, and tokens
// refill at a fixed interval.
type RateLimiter struct {
	mu             sync.Mutex
	tokens         int
	maxTokens      int
	refillInterval time.Duration
	lastRefill     time.Time
}

// NewRateLimiter creates a limiter holding at most maxTokens, refilling
// one token per refillInterval (e.g., 100ms yields 10 requests/second
// sustained).
func NewRateLimiter(maxTokens int, refillInterval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:         maxTokens,
		maxTokens:      maxTokens,
		refillInterval: refillInterval,
		lastRefill:     time.Now(),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		if rl.tryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.refillInterval / 4):
		}
	}
}

// tryAcquire refills the bucket from elapsed time, then attempts to
// consume a token.
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	refill := int(now.Sub(rl.lastRefill) / rl.refillInterval)
	if refill > 0 {
		rl.tokens += refill
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = now
	}

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstThenBlock(t *testing.T) {
	limiter := NewRateLimiter(3, time.Hour)

	// The bucket starts full: the burst succeeds without waiting.
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.tryAcquire())
	}
	assert.False(t, limiter.tryAcquire())
}

func TestRateLimiter_Refills(t *testing.T) {
	limiter := NewRateLimiter(1, 10*time.Millisecond)

	require.True(t, limiter.tryAcquire())
	require.False(t, limiter.tryAcquire())

	time.Sleep(25 * time.Millisecond)
	assert.True(t, limiter.tryAcquire())
}

func TestRateLimiter_RefillCappedAtMax(t *testing.T) {
	limiter := NewRateLimiter(2, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.True(t, limiter.tryAcquire())
	assert.True(t, limiter.tryAcquire())
	assert.False(t, limiter.tryAcquire())
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	limiter := NewRateLimiter(0, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_WaitAfterRefill(t *testing.T) {
	limiter := NewRateLimiter(1, 5*time.Millisecond)
	require.True(t, limiter.tryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, limiter.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

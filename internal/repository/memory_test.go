package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(2, 10*time.Minute)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "ann@lab.edu")
	require.NoError(t, err)
	assert.True(t, allowed)

	now = now.Add(5 * time.Minute)
	allowed, _ = limiter.Allow(ctx, "ann@lab.edu")
	assert.True(t, allowed)

	allowed, _ = limiter.Allow(ctx, "ann@lab.edu")
	assert.False(t, allowed)

	// 09:00 leaves the window but both 09:05 attempts remain.
	now = now.Add(5*time.Minute + time.Second)
	allowed, _ = limiter.Allow(ctx, "ann@lab.edu")
	assert.False(t, allowed)

	now = now.Add(10 * time.Minute)
	allowed, _ = limiter.Allow(ctx, "ann@lab.edu")
	assert.True(t, allowed)
}

func TestMemoryRateLimiter_Prune(t *testing.T) {
	now := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	limiter := NewMemoryRateLimiter(5, time.Minute)
	limiter.now = func() time.Time { return now }

	_, _ = limiter.Allow(context.Background(), "a")
	_, _ = limiter.Allow(context.Background(), "b")
	now = now.Add(2 * time.Minute)
	_, _ = limiter.Allow(context.Background(), "b")

	assert.Equal(t, 1, limiter.Prune())
	assert.Len(t, limiter.attempts, 1)
}

package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryRateLimiter keeps the same sliding-window log as RedisRateLimiter in process memory.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		attempts: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (r *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}

	now := r.now()
	cutoff := now.Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.attempts[key]
	kept := log[:0]
	for _, at := range log {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	allowed := len(kept) < r.limit
	r.attempts[key] = append(kept, now)
	return allowed, nil
}

// Prune drops keys whose attempts have all left the window.
func (r *MemoryRateLimiter) Prune() int {
	cutoff := r.now().Add(-r.window)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, log := range r.attempts {
		if len(log) == 0 || !log[len(log)-1].After(cutoff) {
			delete(r.attempts, key)
			removed++
		}
	}
	return removed
}

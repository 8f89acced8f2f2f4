package repository

import (
	"context"
	"sync/atomic"
	"time"

	"labportal/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRateLimiter uses primary until it errors, then serves from fallback
// and retries primary once per recoveryInterval.
type FailoverRateLimiter struct {
	primary  domain.RateLimiter
	fallback domain.RateLimiter
	logger   *zerolog.Logger
	isDown   atomic.Bool
	downAt   atomic.Int64
	now      func() time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimiter, logger *zerolog.Logger) *FailoverRateLimiter {
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if !r.isDown.Load() || r.now().Sub(time.Unix(0, r.downAt.Load())) > recoveryInterval {
		allowed, err := r.primary.Allow(ctx, key)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary rate limiter recovered")
			}
			return allowed, nil
		}
		if !r.isDown.Swap(true) {
			r.logger.Error().Err(err).Msg("Primary rate limiter failed, falling back to memory")
		}
		r.downAt.Store(r.now().UnixNano())
	}

	return r.fallback.Allow(ctx, key)
}

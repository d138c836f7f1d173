package resilience

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter wraps a rate.Limiter with adaptive rate adjustment.
// The initial rate is also the ceiling: on success the rate recovers by 20%
// up to it, on 429 it halves (down to initial/4 minimum).
type AdaptiveLimiter struct {
	mu          sync.Mutex
	limiter     *rate.Limiter
	initialRate rate.Limit
	maxRate     rate.Limit
	minRate     rate.Limit
	currentRate rate.Limit
}

// NewAdaptiveLimiter creates an adaptive rate limiter that auto-tunes.
func NewAdaptiveLimiter(initialRate rate.Limit, burst int) *AdaptiveLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &AdaptiveLimiter{
		limiter:     rate.NewLimiter(initialRate, burst),
		initialRate: initialRate,
		maxRate:     initialRate,
		minRate:     initialRate / 4,
		currentRate: initialRate,
	}
}

// NewPerMinuteLimiter creates an adaptive limiter from a requests-per-minute
// budget. rpm <= 0 disables pacing.
func NewPerMinuteLimiter(rpm, burst int) *AdaptiveLimiter {
	if rpm <= 0 {
		return NewAdaptiveLimiter(rate.Inf, burst)
	}
	return NewAdaptiveLimiter(rate.Limit(float64(rpm)/60.0), burst)
}

// Wait blocks until the limiter allows an event. A wait that could not finish
// before ctx's deadline fails with an error matching context.DeadlineExceeded,
// even while ctx itself is still live.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return eris.Wrap(context.DeadlineExceeded, "rate limiter: wait would exceed deadline")
	}
	return nil
}

// OnSuccess increases the rate by 20%, up to the initial rate.
func (a *AdaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentRate == rate.Inf {
		return
	}
	newRate := a.currentRate * 1.2
	if newRate > a.maxRate {
		newRate = a.maxRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
}

// OnRateLimit halves the rate on 429 responses.
func (a *AdaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentRate == rate.Inf {
		return
	}
	newRate := a.currentRate * 0.5
	if newRate < a.minRate {
		newRate = a.minRate
	}
	a.currentRate = newRate
	a.limiter.SetLimit(newRate)
	zap.L().Warn("adaptive rate limit: reducing rate after 429",
		zap.Float64("new_rate", float64(newRate)),
	)
}

// Limit returns the current rate limit.
func (a *AdaptiveLimiter) Limit() rate.Limit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentRate
}

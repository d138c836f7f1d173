// Package resilience provides retry and pacing primitives for calls to
// rate-limited external services.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls how a single call is retried. Transient failures wait
// a fixed delay; rate-limited failures back off exponentially; fatal failures
// return at once.
type RetryPolicy struct {
	// MaxRetries is the total number of attempts, the first one included.
	// Default: 3.
	MaxRetries int

	// TransientDelay is the fixed wait after a transient failure. Default: 5s.
	TransientDelay time.Duration

	// RateLimitBase is the wait after the first rate-limited failure; it
	// doubles on each further one. Default: 2s.
	RateLimitBase time.Duration

	// RateLimitMax caps the rate-limit backoff. Default: 60s.
	RateLimitMax time.Duration

	// JitterFraction adds random jitter as a fraction of the rate-limit delay
	// (0.0 = none, 0.5 = ±50%). Default: 0.
	JitterFraction float64

	// Classify optionally overrides the default error classification.
	Classify func(err error) FailureClass

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, class FailureClass, delay time.Duration, err error)
}

// DefaultRetryPolicy returns the policy used for oracle calls.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		TransientDelay: 5 * time.Second,
		RateLimitBase:  2 * time.Second,
		RateLimitMax:   60 * time.Second,
	}
}

// ExhaustedError is returned when every attempt failed with a retryable
// class. Class is the majority class across the attempts; a tie goes to the
// final failure. Err is the final failure.
type ExhaustedError struct {
	Class    FailureClass
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts (%s): %v", e.Attempts, e.Class, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// ExhaustedClass reports the class of an ExhaustedError in err's chain.
func ExhaustedClass(err error) (FailureClass, bool) {
	var ex *ExhaustedError
	if errors.As(err, &ex) {
		return ex.Class, true
	}
	return ClassFatal, false
}

// Do executes fn under policy p. A fatal failure is returned unchanged; a
// retryable failure that survives every attempt comes back as an
// *ExhaustedError. Context cancellation stops retries immediately and returns
// the context error.
func Do(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal executes fn returning a value with retry logic. Same semantics as Do
// but preserves the return value from the successful call.
func DoVal[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	p = applyDefaults(p)

	classify := p.Classify
	if classify == nil {
		classify = Classify
	}

	var zero T
	rateLimited := 0
	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		class := classify(err)
		if class == ClassFatal {
			return zero, err
		}
		if class == ClassRateLimited {
			rateLimited++
		}

		if attempt >= p.MaxRetries {
			return zero, &ExhaustedError{Class: exhaustedClass(class, rateLimited, attempt), Attempts: attempt, Err: err}
		}

		delay := p.delay(class, rateLimited, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, class, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// exhaustedClass picks the class reported for an exhausted call. Every
// attempt was retryable, so the failures split between rate-limited and
// transient.
func exhaustedClass(last FailureClass, rateLimited, attempts int) FailureClass {
	switch transient := attempts - rateLimited; {
	case rateLimited > transient:
		return ClassRateLimited
	case transient > rateLimited:
		return ClassTransient
	}
	return last
}

func applyDefaults(p RetryPolicy) RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxRetries <= 0 {
		p.MaxRetries = d.MaxRetries
	}
	if p.TransientDelay <= 0 {
		p.TransientDelay = d.TransientDelay
	}
	if p.RateLimitBase <= 0 {
		p.RateLimitBase = d.RateLimitBase
	}
	if p.RateLimitMax <= 0 {
		p.RateLimitMax = d.RateLimitMax
	}
	if p.RateLimitMax < p.RateLimitBase {
		p.RateLimitMax = p.RateLimitBase
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// delay computes the wait before the next attempt. n is the number of
// rate-limited failures seen so far in this call.
func (p RetryPolicy) delay(class FailureClass, n int, err error) time.Duration {
	if class != ClassRateLimited {
		return p.TransientDelay
	}

	d := float64(p.RateLimitBase) * math.Pow(2, float64(n-1))
	if d > float64(p.RateLimitMax) {
		d = float64(p.RateLimitMax)
	}

	if p.JitterFraction > 0 {
		jitterRange := d * p.JitterFraction
		d += (rand.Float64()*2 - 1) * jitterRange
	}

	// Honor a longer server hint, within the cap.
	var rl *RateLimitError
	if errors.As(err, &rl) && float64(rl.RetryAfter) > d {
		d = math.Min(float64(rl.RetryAfter), float64(p.RateLimitMax))
	}

	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(service, operation string) func(int, FailureClass, time.Duration, error) {
	return func(attempt int, class FailureClass, delay time.Duration, err error) {
		zap.L().Warn("retrying operation",
			zap.String("service", service),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.String("class", class.String()),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
	}
}

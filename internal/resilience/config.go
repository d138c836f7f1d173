package resilience

import (
	"time"
)

// FromRetryConfig converts config values to a RetryPolicy. Non-positive
// values keep the defaults.
func FromRetryConfig(maxRetries, transientDelayMs, rateLimitBaseMs, rateLimitMaxMs int, jitterFraction float64) RetryPolicy {
	p := DefaultRetryPolicy()
	if maxRetries > 0 {
		p.MaxRetries = maxRetries
	}
	if transientDelayMs > 0 {
		p.TransientDelay = time.Duration(transientDelayMs) * time.Millisecond
	}
	if rateLimitBaseMs > 0 {
		p.RateLimitBase = time.Duration(rateLimitBaseMs) * time.Millisecond
	}
	if rateLimitMaxMs > 0 {
		p.RateLimitMax = time.Duration(rateLimitMaxMs) * time.Millisecond
	}
	if jitterFraction >= 0 {
		p.JitterFraction = jitterFraction
	}
	return p
}

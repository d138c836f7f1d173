package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:     maxRetries,
		TransientDelay: 1 * time.Millisecond,
		RateLimitBase:  1 * time.Millisecond,
		RateLimitMax:   4 * time.Millisecond,
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterTransient(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_TransientExhausted(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("always fails"), 500)
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	class, ok := ExhaustedClass(err)
	if !ok {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if class != ClassTransient {
		t.Errorf("expected transient class, got %s", class)
	}
}

func TestDo_RateLimitedExhausted(t *testing.T) {
	var calls int
	var retries []int
	p := fastPolicy(3)
	p.OnRetry = func(attempt int, class FailureClass, _ time.Duration, _ error) {
		if class != ClassRateLimited {
			t.Errorf("expected rate_limited retry, got %s", class)
		}
		retries = append(retries, attempt)
	}

	val, err := DoVal(context.Background(), p, func(_ context.Context) (string, error) {
		calls++
		return "partial", NewRateLimitError(errors.New("429 too many requests"), 0)
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if val != "" {
		t.Errorf("expected zero value, got %q", val)
	}
	class, ok := ExhaustedClass(err)
	if !ok || class != ClassRateLimited {
		t.Fatalf("expected rate-limited exhaustion, got %v", err)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Errorf("expected retries [1 2], got %v", retries)
	}
}

func TestDo_MixedExhaustionTakesMajorityClass(t *testing.T) {
	rl := NewRateLimitError(errors.New("429"), 0)
	tr := NewTransientError(errors.New("503"), 503)

	tests := []struct {
		name     string
		max      int
		failures []error
		want     FailureClass
	}{
		{"rate limited twice then unavailable", 3, []error{rl, rl, tr}, ClassRateLimited},
		{"unavailable twice then rate limited", 3, []error{tr, tr, rl}, ClassTransient},
		{"rate limited between transients", 3, []error{tr, rl, tr}, ClassTransient},
		{"tie goes to the last failure", 2, []error{tr, rl}, ClassRateLimited},
		{"tie goes to the last failure reversed", 2, []error{rl, tr}, ClassTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			err := Do(context.Background(), fastPolicy(tt.max), func(_ context.Context) error {
				e := tt.failures[calls]
				calls++
				return e
			})
			if calls != tt.max {
				t.Errorf("expected %d calls, got %d", tt.max, calls)
			}
			class, ok := ExhaustedClass(err)
			if !ok {
				t.Fatalf("expected ExhaustedError, got %v", err)
			}
			if class != tt.want {
				t.Errorf("expected %s, got %s", tt.want, class)
			}
			if !errors.Is(err, tt.failures[tt.max-1]) {
				t.Errorf("expected the final failure to be wrapped, got %v", err)
			}
		})
	}
}

func TestDo_FatalNotRetried(t *testing.T) {
	var calls int
	fatal := errors.New("bad request")
	err := Do(context.Background(), fastPolicy(3), func(_ context.Context) error {
		calls++
		return fatal
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, fatal) {
		t.Errorf("expected the fatal error back, got %v", err)
	}
	if _, ok := ExhaustedClass(err); ok {
		t.Error("fatal error must not be reported as exhausted")
	}
}

func TestDo_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	p := RetryPolicy{MaxRetries: 5, TransientDelay: 50 * time.Millisecond}

	err := Do(ctx, p, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewTransientError(errors.New("fail"), 500)
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_CustomClassify(t *testing.T) {
	var calls int
	p := fastPolicy(3)
	p.Classify = func(err error) FailureClass {
		if err.Error() == "retry me" {
			return ClassTransient
		}
		return ClassFatal
	}

	err := Do(context.Background(), p, func(_ context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("retry me")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_DefaultPolicy(t *testing.T) {
	var calls int
	err := Do(context.Background(), RetryPolicy{}, func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDelay_TransientIsFixed(t *testing.T) {
	p := applyDefaults(RetryPolicy{TransientDelay: 5 * time.Second})
	for n := 0; n < 4; n++ {
		if d := p.delay(ClassTransient, n, nil); d != 5*time.Second {
			t.Errorf("n=%d: expected 5s, got %v", n, d)
		}
	}
}

func TestDelay_RateLimitDoubles(t *testing.T) {
	p := applyDefaults(RetryPolicy{
		RateLimitBase: 100 * time.Millisecond,
		RateLimitMax:  10 * time.Second,
	})

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}
	for i, want := range expected {
		if got := p.delay(ClassRateLimited, i+1, nil); got != want {
			t.Errorf("rate-limited failure %d: expected %v, got %v", i+1, want, got)
		}
	}
}

func TestDelay_RateLimitCapped(t *testing.T) {
	p := applyDefaults(RetryPolicy{
		RateLimitBase: 1 * time.Second,
		RateLimitMax:  5 * time.Second,
	})
	if d := p.delay(ClassRateLimited, 8, nil); d != 5*time.Second {
		t.Errorf("expected delay capped at 5s, got %v", d)
	}
}

func TestDelay_HonorsRetryAfter(t *testing.T) {
	p := applyDefaults(RetryPolicy{
		RateLimitBase: 1 * time.Second,
		RateLimitMax:  30 * time.Second,
	})
	err := NewRateLimitError(errors.New("slow down"), 12*time.Second)
	if d := p.delay(ClassRateLimited, 1, err); d != 12*time.Second {
		t.Errorf("expected 12s from Retry-After, got %v", d)
	}

	err = NewRateLimitError(errors.New("slow down"), 5*time.Minute)
	if d := p.delay(ClassRateLimited, 1, err); d != 30*time.Second {
		t.Errorf("expected Retry-After capped at 30s, got %v", d)
	}
}

func TestDelay_WithJitter(t *testing.T) {
	p := applyDefaults(RetryPolicy{
		RateLimitBase:  1 * time.Second,
		RateLimitMax:   30 * time.Second,
		JitterFraction: 0.5,
	})
	for range 50 {
		d := p.delay(ClassRateLimited, 1, nil)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("jittered delay %v outside [500ms, 1.5s]", d)
		}
	}
}

func TestFromRetryConfig(t *testing.T) {
	p := FromRetryConfig(4, 100, 200, 3000, 0.1)
	if p.MaxRetries != 4 {
		t.Errorf("MaxRetries = %d", p.MaxRetries)
	}
	if p.TransientDelay != 100*time.Millisecond {
		t.Errorf("TransientDelay = %v", p.TransientDelay)
	}
	if p.RateLimitBase != 200*time.Millisecond {
		t.Errorf("RateLimitBase = %v", p.RateLimitBase)
	}
	if p.RateLimitMax != 3*time.Second {
		t.Errorf("RateLimitMax = %v", p.RateLimitMax)
	}

	d := FromRetryConfig(0, 0, 0, 0, -1)
	if d.MaxRetries != 3 || d.TransientDelay != 5*time.Second {
		t.Errorf("expected defaults, got %+v", d)
	}
}

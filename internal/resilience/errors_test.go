package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("server overloaded"), 503)
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
}

func TestIsTransient_WrappedTransientError(t *testing.T) {
	inner := NewTransientError(errors.New("bad gateway"), 502)
	wrapped := fmt.Errorf("api call failed: %w", inner)
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_NilError(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_RegularError(t *testing.T) {
	err := errors.New("invalid input: missing field")
	if IsTransient(err) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_ConnectionReset(t *testing.T) {
	err := fmt.Errorf("write tcp: %w", syscall.ECONNRESET)
	if !IsTransient(err) {
		t.Error("ECONNRESET should be transient")
	}
}

func TestIsTransient_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTransient(err) {
		t.Error("network timeout should be transient")
	}
}

func TestIsTransient_StringPatterns(t *testing.T) {
	patterns := []string{
		"connection reset by peer",
		"broken pipe",
		"TLS handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range patterns {
		if !IsTransient(errors.New(p)) {
			t.Errorf("expected %q to be transient", p)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"nil", nil, ClassFatal},
		{"rate limit error", NewRateLimitError(errors.New("429"), 0), ClassRateLimited},
		{"transient with 429", NewTransientError(errors.New("429"), 429), ClassRateLimited},
		{"wrapped rate limit", fmt.Errorf("call: %w", NewRateLimitError(errors.New("429"), 0)), ClassRateLimited},
		{"transient 503", NewTransientError(errors.New("503"), 503), ClassTransient},
		{"connection reset", fmt.Errorf("read: %w", syscall.ECONNRESET), ClassTransient},
		{"plain error", errors.New("invalid api key"), ClassFatal},
		{"context canceled", context.Canceled, ClassFatal},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ClassFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	cases := map[int]FailureClass{
		429: ClassRateLimited,
		408: ClassTransient,
		500: ClassTransient,
		502: ClassTransient,
		503: ClassTransient,
		504: ClassTransient,
		529: ClassTransient,
		400: ClassFatal,
		401: ClassFatal,
		403: ClassFatal,
		404: ClassFatal,
	}
	for code, want := range cases {
		if got := ClassifyHTTPStatus(code); got != want {
			t.Errorf("HTTP %d: got %s, want %s", code, got, want)
		}
	}
}

func TestFailureClass_String(t *testing.T) {
	if ClassFatal.String() != "fatal" || ClassTransient.String() != "transient" || ClassRateLimited.String() != "rate_limited" {
		t.Error("unexpected FailureClass names")
	}
}

func TestRateLimitError_Message(t *testing.T) {
	err := NewRateLimitError(errors.New("too many requests"), 0)
	if err.Error() != "too many requests" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, err.Err) {
		t.Error("expected Unwrap to expose inner error")
	}
}

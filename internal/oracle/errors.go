package oracle

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Failure kinds surfaced by Complete. Compare with errors.Is.
var (
	// ErrQuotaExhausted means the oracle kept rate limiting the call until
	// retries ran out. The rate limit is shared, so the whole run should stop
	// dispatching.
	ErrQuotaExhausted = eris.New("oracle: quota exhausted")

	// ErrOracleUnavailable means transient failures outlasted the retries.
	ErrOracleUnavailable = eris.New("oracle: unavailable")

	// ErrOracleRejected means the oracle failed the request in a way retrying
	// cannot fix (bad request, auth, unknown model).
	ErrOracleRejected = eris.New("oracle: request rejected")
)

// Failure is the typed error returned by Client.Complete.
type Failure struct {
	Kind     error
	Phase    string
	Attempts int
	Err      error
}

func (f *Failure) Error() string {
	if f.Attempts > 0 {
		return fmt.Sprintf("%s (%s, %d attempts): %v", f.Kind.Error(), f.Phase, f.Attempts, f.Err)
	}
	return fmt.Sprintf("%s (%s): %v", f.Kind.Error(), f.Phase, f.Err)
}

// Is matches the failure kind sentinel.
func (f *Failure) Is(target error) bool {
	return target == f.Kind
}

func (f *Failure) Unwrap() error {
	return f.Err
}

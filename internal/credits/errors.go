package credits

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound means the caller referenced a user with no usage record.
	ErrUserNotFound = errors.New("user not found")

	// ErrConflict is returned by UserStore.SaveUser when the record changed
	// underneath the caller. The ledger retries a bounded number of times.
	ErrConflict = errors.New("usage record modified concurrently")

	// ErrRetryExhausted wraps a SaveUser conflict that persisted across all
	// retry attempts.
	ErrRetryExhausted = errors.New("usage record update retries exhausted")
)

// QuotaExceededError is the expected, user-facing rejection when a
// reservation would push usage over the daily cap. It resolves on its own at
// UTC rollover.
type QuotaExceededError struct {
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily credit limit exceeded: %d credits remaining, try again tomorrow", e.Remaining)
}

// IsQuotaExceeded reports whether err is a quota rejection and returns it.
func IsQuotaExceeded(err error) (*QuotaExceededError, bool) {
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

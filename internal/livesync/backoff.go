package livesync

import "time"

// Backoff is the retry policy for transient exchange errors. Delays grow
// as base*(2^attempt - 1): 0, 0.5s, 1.5s, 3.5s, ...
type Backoff struct {
	Base       time.Duration
	MaxRetries int
}

// DefaultBackoff matches the exchange client's overload behavior: retry
// only while the exchange sheds load, give up after six attempts.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:       500 * time.Millisecond,
		MaxRetries: 6,
	}
}

// Delay returns the wait before the given attempt, starting at 0.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Base * time.Duration((1<<attempt)-1)
}

// Exhausted reports whether the attempt count is past the retry budget.
func (b Backoff) Exhausted(attempt int) bool {
	return attempt >= b.MaxRetries
}

// Retryable reports whether an HTTP status is worth retrying. Only 503
// qualifies: the exchange is shedding load and the request is safe to
// repeat. Anything else is either permanent or not idempotent to retry.
func (b Backoff) Retryable(status int) bool {
	return status == 503
}

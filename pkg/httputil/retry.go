package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (network timeouts, 5xx responses) with this type
// so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err in a [RetryableError]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Backoff selects how the delay grows between attempts.
type Backoff int

const (
	// Exponential doubles the delay after each failed attempt.
	Exponential Backoff = iota
	// Fixed waits the same delay before every retry.
	Fixed
)

// Policy describes how an operation is retried.
//
// The zero Policy makes a single attempt.
type Policy struct {
	// Attempts is the total number of tries, including the first.
	Attempts int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// Backoff selects fixed or exponential growth of Delay.
	Backoff Backoff
}

// DefaultPolicy is 3 attempts starting at 1 second, doubling each retry.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second, Backoff: Exponential}

// NoRetry makes exactly one attempt.
var NoRetry = Policy{Attempts: 1}

// Do executes fn until it succeeds, returns a non-retryable error, or the
// attempts run out. Only errors wrapped with [RetryableError] are retried.
// Returns the last error if all attempts fail, or ctx.Err() if cancelled
// while waiting.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				if p.Backoff == Exponential {
					delay *= 2
				}
			}
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

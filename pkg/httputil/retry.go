package httputil

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy bounds a retry loop.
type Policy struct {
	// Attempts is the total number of calls; values below one mean one.
	Attempts int
	// Delay is the wait before the first retry.
	Delay time.Duration
	// MaxDelay caps the doubled delay; zero means no cap.
	MaxDelay time.Duration
	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy is three attempts starting at 500ms.
var DefaultPolicy = Policy{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// policy's attempts run out. attempt counts from one. It returns the last
// error, or ctx.Err() if the context ends while waiting.
func Retry(ctx context.Context, p Policy, fn func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := 1; i <= attempts; i++ {
		lastErr = fn(i)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || i == attempts {
			return lastErr
		}
		if p.OnRetry != nil {
			p.OnRetry(i, lastErr, delay)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

// IsRetryable reports whether err is marked with [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

package completion

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseBackoff = 1 * time.Second

// retryableError marks an error as safe to retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// caller applies rate limiting and retries around a single request.
type caller struct {
	limiter     *rate.Limiter
	maxRetries  int
	baseBackoff time.Duration
}

// newCaller builds a caller. ratePerSecond <= 0 disables rate limiting.
func newCaller(ratePerSecond float64, burst, maxRetries int) caller {
	c := caller{maxRetries: maxRetries, baseBackoff: defaultBaseBackoff}
	if ratePerSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	return c
}

// do runs fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. Backoff doubles after each failed attempt.
func (c caller) do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

// retryableStatus matches the status codes worth retrying in error text from
// clients that do not expose the HTTP status.
var retryableStatus = regexp.MustCompile(`status code:? (429|5\d\d)\b`)

// classify wraps errors from third-party clients as retryable when they look
// like rate limiting, server errors or transport failures.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if retryableStatus.MatchString(err.Error()) {
		return &retryableError{err: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &retryableError{err: err}
	}
	return err
}

package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrAttemptTimeout marks an attempt that ran out of its own time budget while
// the caller's context was still live.
var ErrAttemptTimeout = errors.New("attempt timed out")

// RetryPolicy is a linear backoff policy: after failed attempt n (0-based) the
// caller waits (n+1)*Backoff. MaxRetries counts retries, not attempts.
type RetryPolicy struct {
	MaxRetries     int
	Backoff        time.Duration
	AttemptTimeout time.Duration

	// ShouldRetry decides whether err is worth another attempt. Nil retries everything.
	ShouldRetry func(err error) bool
	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     2,
		Backoff:        time.Second,
		AttemptTimeout: 8 * time.Second,
	}
}

// Retry runs fn until it succeeds, the policy gives up or ctx is done. It returns
// the number of attempts made and the last error.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) (int, error) {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}

	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			return runAttempt(ctx, policy.AttemptTimeout, fn)
		},
		retry.Context(ctx),
		retry.Attempts(uint(policy.MaxRetries)+1),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * policy.Backoff
		}),
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			if policy.ShouldRetry == nil {
				return true
			}
			return policy.ShouldRetry(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			if policy.OnRetry != nil && int(n) < policy.MaxRetries {
				policy.OnRetry(int(n)+1, err)
			}
		}),
	)
	return attempts, err
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %w", ErrAttemptTimeout, timeout, err)
	}
	return err
}

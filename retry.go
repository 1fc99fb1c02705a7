package ygggo_mysql_pool

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls retry strategy for transient database errors.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Jitter      bool
	MaxElapsed  time.Duration
}

// DefaultRetryPolicy returns the stock policy used by Runner.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 100 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		Jitter:      true,
	}
}

// Retry runs op under pol, retrying only errors Classify considers
// retryable or readonly. Any other error returns immediately.
func Retry(ctx context.Context, pol RetryPolicy, op func() error) error {
	return retryWithPolicy(ctx, pol, op, Classify)
}

// retryWithPolicy retries op according to pol. classify decides which errors
// are worth another attempt.
func retryWithPolicy(ctx context.Context, pol RetryPolicy, op func() error, classify func(error) ErrorClass) error {
	if pol.MaxAttempts <= 0 {
		pol.MaxAttempts = 1
	}
	if pol.BaseBackoff <= 0 {
		pol.BaseBackoff = 10 * time.Millisecond
	}
	if pol.MaxBackoff <= 0 {
		pol.MaxBackoff = pol.BaseBackoff
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pol.BaseBackoff
	b.MaxInterval = pol.MaxBackoff
	b.MaxElapsedTime = pol.MaxElapsed // zero means no elapsed bound
	if !pol.Jitter {
		b.RandomizationFactor = 0
	}

	wrapped := backoff.WithContext(backoff.WithMaxRetries(b, uint64(pol.MaxAttempts-1)), ctx)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		switch classify(err) {
		case ErrClassRetryable, ErrClassReadonly:
			return err
		default:
			return backoff.Permanent(err)
		}
	}, wrapped)
}

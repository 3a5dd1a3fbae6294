package payerror

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	onRetry    func(attempt int, delay time.Duration, err *Error)
}

type RetryOption func(*retryConfig)

// WithMaxRetries sets the total number of attempts, including the first one.
func WithMaxRetries(n int) RetryOption {
	return func(c *retryConfig) {
		c.maxRetries = n
	}
}

func WithBaseDelay(d time.Duration) RetryOption {
	return func(c *retryConfig) {
		c.baseDelay = d
	}
}

// WithOnRetry is called before each sleep with the failed attempt number.
func WithOnRetry(fn func(attempt int, delay time.Duration, err *Error)) RetryOption {
	return func(c *retryConfig) {
		c.onRetry = fn
	}
}

// WithRetry runs op until it succeeds, fails with a non-retryable kind, or
// runs out of attempts. Attempt n waits baseDelay * 2^(n-1) before the next one.
// The returned error is always a *Error.
func WithRetry(ctx context.Context, op func(ctx context.Context) error, opts ...RetryOption) error {
	cfg := retryConfig{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.maxRetries < 1 {
		cfg.maxRetries = 1
	}

	if cfg.baseDelay <= 0 {
		cfg.baseDelay = time.Nanosecond
	}

	var (
		attempt int
		lastErr *Error
	)

	backoff := retry.WithMaxRetries(uint64(cfg.maxRetries-1), retry.NewExponential(cfg.baseDelay)) //nolint:gosec

	observed := retry.BackoffFunc(func() (time.Duration, bool) {
		delay, stop := backoff.Next()
		if !stop && cfg.onRetry != nil {
			cfg.onRetry(attempt, delay, lastErr)
		}

		return delay, stop
	})

	err := retry.Do(ctx, observed, func(ctx context.Context) error {
		attempt++

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = Parse(err)
		if lastErr.Retryable {
			return retry.RetryableError(lastErr)
		}

		return lastErr
	})
	if err != nil {
		return Parse(err)
	}

	return nil
}

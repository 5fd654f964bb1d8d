package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

// RetryPolicy bounds session-creation retries: delays start at Initial and
// double up to Max, for at most MaxAttempts tries within Budget.
type RetryPolicy struct {
	MaxAttempts uint
	Initial     time.Duration
	Max         time.Duration
	Budget      time.Duration
}

// DefaultRetryPolicy is 10 tries, 1s doubling to 5s, within two minutes
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 10,
		Initial:     time.Second,
		Max:         5 * time.Second,
		Budget:      2 * time.Minute,
	}
}

func (p RetryPolicy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Initial
	b.MaxInterval = p.Max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	return b
}

// CreateSessionWithRetry retries CreateSession on network errors and
// temporary backend statuses. Other 4xx responses fail immediately.
func (c *Client) CreateSessionWithRetry(ctx context.Context) (*Session, error) {
	attempt := 0
	op := func() (*Session, error) {
		attempt++
		s, err := c.CreateSession(ctx)
		if err == nil {
			return s, nil
		}
		var be *BackendError
		if errors.As(err, &be) && !be.Temporary() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	s, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.Retry.backOff()),
		backoff.WithMaxTries(c.Retry.MaxAttempts),
		backoff.WithMaxElapsedTime(c.Retry.Budget),
		backoff.WithNotify(func(err error, next time.Duration) {
			internal.LogWarn("Attempt %d to create session failed, retrying in %v: %v", attempt, next, err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create session after %d attempts: %w", attempt, err)
	}
	return s, nil
}

// WaitForBackend polls CheckHealth every interval until it succeeds, the
// attempts run out, or ctx ends.
func (c *Client) WaitForBackend(ctx context.Context, interval time.Duration, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = c.CheckHealth(ctx); lastErr == nil {
			return nil
		}
		internal.LogDebug("Backend not ready (attempt %d/%d): %v", i+1, attempts, lastErr)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("backend not available after %d attempts: %w", attempts, lastErr)
}

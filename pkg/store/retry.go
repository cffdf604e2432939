package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Retry tuning defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 30 * time.Second
	DefaultTimeout     = 15 * time.Second
)

// RetryPolicy wraps remote operations with bounded retries and exponential
// backoff. Only TransientError is retried; every other error propagates
// immediately. When a transient error carries a server-suggested delay
// (rate limiting), that delay is preferred over the exponential one, capped
// at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Timeout     time.Duration
}

// NewRetryPolicy returns a policy with the package defaults.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
		Timeout:     DefaultTimeout,
	}
}

// Do runs fn, retrying transient failures up to MaxAttempts total attempts.
// Each attempt gets its own timeout derived from ctx. After exhaustion the
// last transient error is returned.
func (p *RetryPolicy) Do(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error) error {
	bo := &suggestedBackOff{base: p.BaseDelay, max: p.MaxDelay}

	attempt := func() error {
		attemptCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}

		err := fn(attemptCtx)
		if err == nil {
			return nil
		}

		var te *TransientError
		if !errors.As(err, &te) {
			return backoff.Permanent(err)
		}
		bo.suggest(te.RetryAfter)
		return err
	}

	notify := func(err error, delay time.Duration) {
		logger.Warn("Retrying remote operation",
			zap.String("operation", op),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	retries := uint64(0)
	if p.MaxAttempts > 1 {
		retries = uint64(p.MaxAttempts - 1)
	}

	wrapped := backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)
	return backoff.RetryNotify(attempt, wrapped, notify)
}

// suggestedBackOff grows exponentially from base but yields the last
// server-suggested delay instead when one was observed. Both are capped at
// max.
type suggestedBackOff struct {
	base      time.Duration
	max       time.Duration
	attempt   uint
	suggested time.Duration
}

func (b *suggestedBackOff) Reset() {
	b.attempt = 0
	b.suggested = 0
}

func (b *suggestedBackOff) NextBackOff() time.Duration {
	delay := b.base << b.attempt
	b.attempt++

	if b.suggested > 0 {
		delay = b.suggested
		b.suggested = 0
	}
	if b.max > 0 && delay > b.max {
		delay = b.max
	}
	if delay < 0 {
		delay = b.max
	}
	return delay
}

func (b *suggestedBackOff) suggest(d time.Duration) {
	b.suggested = d
}

// Package shared holds helpers used by several use cases.
package shared

import (
	"context"
	"fmt"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/strategy"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// DefaultAttempts is the attempt budget of every external call.
const DefaultAttempts = 3

// Retrier retries external calls with exponentially doubling backoff.
type Retrier struct {
	logger   domain.Logger
	base     time.Duration
	attempts uint
}

// NewRetrier creates a Retrier whose first backoff is base.
func NewRetrier(base time.Duration, logger domain.Logger) *Retrier {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Retrier{base: base, attempts: DefaultAttempts, logger: logger}
}

// Backoff returns the wait before the given retry: base, 2*base, 4*base, ...
func (r *Retrier) Backoff(attempt uint) time.Duration {
	if attempt == 0 {
		return 0
	}
	return r.base << (attempt - 1)
}

// Do runs fn until it succeeds or the attempts are exhausted.
// The last error is returned wrapped with op. Cancelling ctx stops further attempts.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var last error
	err := retry.Retry(func(attempt uint) error {
		if err := ctx.Err(); err != nil {
			last = err
			return err
		}
		last = fn(ctx)
		if last != nil {
			r.logger.Debug("retry", fmt.Sprintf("%s attempt %d/%d failed: %v", op, attempt+1, r.attempts, last))
		}
		return last
	},
		strategy.Limit(r.attempts),
		func(uint) bool { return ctx.Err() == nil },
		strategy.Backoff(r.Backoff),
	)
	if err == nil {
		return nil
	}
	if last == nil {
		last = err
	}
	return fmt.Errorf("%s: %w", op, last)
}

// Call is Do for functions returning a value.
func Call[T any](ctx context.Context, r *Retrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, op, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

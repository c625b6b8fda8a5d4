// Package waiter provides the sleep used between loop iterations.
package waiter

import (
	"context"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Ensure Waiter implements domain.Waiter interface.
var _ domain.Waiter = (*Waiter)(nil)

// Waiter sleeps for a duration, returning early when a wake signal arrives.
type Waiter struct {
	wake <-chan struct{}
}

// New creates a Waiter. A nil wake channel gives a plain timed sleep.
func New(wake <-chan struct{}) *Waiter {
	return &Waiter{wake: wake}
}

// Wait blocks for d, until woken, or until ctx is done.
func (w *Waiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	case <-w.wake:
		return nil
	}
}

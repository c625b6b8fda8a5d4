package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// StopReason tells why the loop returned.
type StopReason string

// Stop reasons.
const (
	StopDeadline  StopReason = "deadline"  // Global timeout reached
	StopHalted    StopReason = "halted"    // Replenishment exhausted under the halt policy
	StopCancelled StopReason = "cancelled" // Context cancelled at a sleep point or between iterations
	StopLimit     StopReason = "limit"     // Requested number of iterations done
	StopPaused    StopReason = "paused"    // Pause flag set in config
)

// RunLoopInput contains the parameters for running the loop.
type RunLoopInput struct {
	MaxIterations int // Zero runs until the deadline
}

// RunLoopOutput contains the result of a loop run.
type RunLoopOutput struct {
	LastOutcome domain.IterationOutcome
	Reason      StopReason
	Iterations  int
}

// RunLoop repeats iterations until the deadline, a halt or cancellation.
// Fields are ordered to minimize memory padding.
type RunLoop struct {
	waiter    domain.Waiter
	clock     domain.Clock
	logger    domain.Logger
	iteration *RunIteration
	config    *domain.Config
}

// NewRunLoop creates a new RunLoop use case.
func NewRunLoop(
	iteration *RunIteration,
	waiter domain.Waiter,
	clock domain.Clock,
	config *domain.Config,
	logger domain.Logger,
) *RunLoop {
	return &RunLoop{
		iteration: iteration,
		waiter:    waiter,
		clock:     clock,
		config:    config,
		logger:    logger,
	}
}

// Execute runs the loop. Only lock timeouts and malformed persisted documents
// end it with an error; every other failure is logged and the loop goes on.
// Cancellation of ctx and the deadline are honoured between iterations and at every
// sleep, including replenishment backoff; calls to the execution capability are never cut short.
func (uc *RunLoop) Execute(ctx context.Context, in RunLoopInput) (*RunLoopOutput, error) {
	out := &RunLoopOutput{}
	if uc.config.Pause {
		uc.logger.Warn("loop", "pause flag is enabled; exiting without action")
		out.Reason = StopPaused
		return out, nil
	}

	deadline := uc.clock.Now().Add(uc.config.GlobalTimeout())
	uc.logger.Info("loop", fmt.Sprintf("starting; deadline %s", deadline.Format("15:04:05")))

	for {
		if !uc.clock.Now().Before(deadline) {
			out.Reason = StopDeadline
			break
		}
		if ctx.Err() != nil {
			out.Reason = StopCancelled
			break
		}

		it, err := uc.iteration.Execute(ctx, RunIterationInput{Deadline: deadline})
		out.Iterations++
		outcome := domain.OutcomeIdle
		if err != nil {
			if domain.IsFatal(err) {
				uc.logger.Error("loop", err.Error())
				return out, err
			}
			uc.logger.Error("loop", fmt.Sprintf("iteration failed: %v", err))
		} else {
			outcome = it.Outcome
		}
		out.LastOutcome = outcome

		if outcome == domain.OutcomeHalted {
			out.Reason = StopHalted
			break
		}
		if in.MaxIterations > 0 && out.Iterations >= in.MaxIterations {
			out.Reason = StopLimit
			break
		}
		if !outcome.ShouldSleep() {
			continue
		}

		wait := min(uc.config.PollInterval(), deadline.Sub(uc.clock.Now()))
		if wait <= 0 {
			continue
		}
		uc.logger.Debug("loop", fmt.Sprintf("idle; sleeping %s", wait))
		if err := uc.waiter.Wait(ctx, wait); err != nil {
			out.Reason = StopCancelled
			break
		}
	}

	uc.logger.Info("loop", fmt.Sprintf("stopped after %d iteration(s): %s", out.Iterations, out.Reason))
	return out, nil
}

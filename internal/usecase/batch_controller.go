// Package usecase contains the application use cases.
package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase/shared"
)

// soloRetryAttempts is how often a failed task is resubmitted on its own.
const soloRetryAttempts = 3

// RunBatchInput contains the parameters for running one batch.
type RunBatchInput struct {
	Tasks       []domain.TaskItem  // Pending tasks of the selected section, in ledger order
	Policy      domain.BatchPolicy // Adaptive size bounds
	ActiveBatch int                // Current adaptive size; zero selects Policy.Start
}

// RunBatchOutput contains the reconciled result of a batch.
// Fields are ordered to minimize memory padding.
type RunBatchOutput struct {
	Notes     string                 // Free-form notes reported by the capability
	Batch     []domain.TaskBatchItem // Submitted batch in order
	Successes []domain.TaskItem      // Tasks that succeeded, unique by hash
	Failures  []domain.TaskItem      // Tasks that still fail after solo retries
}

// RunBatch selects a batch, submits it and retries failures one task at a time.
type RunBatch struct {
	client  domain.ExecutionClient
	retrier *shared.Retrier
	logger  domain.Logger
}

// NewRunBatch creates a new RunBatch use case.
func NewRunBatch(client domain.ExecutionClient, retrier *shared.Retrier, logger domain.Logger) *RunBatch {
	return &RunBatch{
		client:  client,
		retrier: retrier,
		logger:  logger,
	}
}

// Execute runs SELECT, EXECUTE, RETRY-FAILURES and RECONCILE.
// Capability errors never escape: an exhausted submission counts every task as
// failed without solo retries.
func (uc *RunBatch) Execute(ctx context.Context, in RunBatchInput) (*RunBatchOutput, error) {
	size := in.Policy.Clamp(in.ActiveBatch)
	tasks := in.Tasks
	if len(tasks) > size {
		tasks = tasks[:size]
	}
	batch := domain.NewBatch(tasks)
	out := &RunBatchOutput{Batch: batch}
	if len(batch) == 0 {
		return out, nil
	}
	uc.logger.Info("batch", fmt.Sprintf("selected %d task(s) for repo %s", len(batch), batch[0].Task.Repo))

	result, err := shared.Call(ctx, uc.retrier, "submit batch", func(ctx context.Context) (*domain.BatchResult, error) {
		return uc.client.SubmitBatch(ctx, batch)
	})
	if err != nil {
		uc.logger.Error("batch", fmt.Sprintf("%v; counting %d task(s) as failed", err, len(batch)))
		out.Successes, out.Failures = domain.Reconcile(nil, tasks)
		return out, nil
	}

	successes, failures := classify(batch, result)
	out.Notes = result.Notes
	if len(failures) > 0 {
		uc.logger.Warn("batch", fmt.Sprintf("%d task(s) failed; retrying each individually", len(failures)))
		var still []domain.TaskItem
		for _, task := range failures {
			if uc.retrySolo(ctx, task) {
				successes = append(successes, task)
				continue
			}
			still = append(still, task)
		}
		failures = still
	}

	out.Successes, out.Failures = domain.Reconcile(successes, failures)
	if len(out.Failures) > 0 {
		uc.logger.Warn("batch", fmt.Sprintf("%d task(s) still failing after retries", len(out.Failures)))
	}
	return out, nil
}

// retrySolo resubmits task alone until it succeeds or the attempts run out.
func (uc *RunBatch) retrySolo(ctx context.Context, task domain.TaskItem) bool {
	single := domain.NewBatch([]domain.TaskItem{task})
	for attempt := 1; attempt <= soloRetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		uc.logger.Info("batch", fmt.Sprintf("retrying task %q (attempt %d)", task.Title, attempt))
		result, err := uc.client.SubmitBatch(ctx, single)
		if err != nil {
			uc.logger.Warn("batch", fmt.Sprintf("retry of %q failed: %v", task.Title, err))
			continue
		}
		if ok, _ := classify(single, result); len(ok) > 0 {
			return true
		}
	}
	return false
}

// classify maps a capability result back onto the submitted batch.
// Tasks the capability did not mention count as failures.
func classify(batch []domain.TaskBatchItem, result *domain.BatchResult) (successes, failures []domain.TaskItem) {
	ok := make(map[string]bool)
	if result != nil {
		for _, t := range result.Successes {
			ok[t.Hash] = true
		}
	}
	for _, item := range batch {
		if ok[item.Task.Hash] {
			successes = append(successes, item.Task)
		} else {
			failures = append(failures, item.Task)
		}
	}
	return successes, failures
}

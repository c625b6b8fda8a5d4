package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase/shared"
)

// RunIterationInput contains the parameters for one orchestration iteration.
type RunIterationInput struct {
	Deadline time.Time // Replenishment stops waiting for more rounds at this time; zero means none
}

// RunIterationOutput contains the result of one iteration.
// Fields are ordered to minimize memory padding.
type RunIterationOutput struct {
	Batch     *RunBatchOutput     // Set when a batch was executed
	Replenish *ReplenishOutput    // Set when the ledger had no pending work
	Gates     *domain.GateSummary // Set when quality gates ran
	Record    domain.IterationRecord
	Outcome   domain.IterationOutcome
}

// RunIteration performs one locked iteration: select, execute, record, publish.
// Fields are ordered to minimize memory padding.
type RunIteration struct {
	state     domain.StateRepository
	ledger    domain.Ledger
	client    domain.ExecutionClient
	gates     domain.GateRunner
	history   domain.HistoryRepository
	clock     domain.Clock
	logger    domain.Logger
	batch     *RunBatch
	replenish *Replenish
	retrier   *shared.Retrier
	config    *domain.Config
}

// NewRunIteration creates a new RunIteration use case.
// gates and history may be nil.
func NewRunIteration(
	state domain.StateRepository,
	ledger domain.Ledger,
	client domain.ExecutionClient,
	batch *RunBatch,
	replenish *Replenish,
	gates domain.GateRunner,
	history domain.HistoryRepository,
	clock domain.Clock,
	retrier *shared.Retrier,
	config *domain.Config,
	logger domain.Logger,
) *RunIteration {
	return &RunIteration{
		state:     state,
		ledger:    ledger,
		client:    client,
		batch:     batch,
		replenish: replenish,
		gates:     gates,
		history:   history,
		clock:     clock,
		retrier:   retrier,
		config:    config,
		logger:    logger,
	}
}

// Execute runs one iteration inside the state lock window and records it in history.
// Cancelling ctx ends replenishment backoff; calls to the execution capability always finish.
func (uc *RunIteration) Execute(ctx context.Context, in RunIterationInput) (*RunIterationOutput, error) {
	out := &RunIterationOutput{}
	out.Record.StartedAt = uc.clock.Now()

	err := uc.state.WithState(ctx, func(ctx context.Context, st *domain.OrchestratorState) error {
		return uc.iterate(ctx, in, st, out)
	})
	if err != nil {
		return nil, err
	}

	out.Record.Outcome = out.Outcome
	out.Record.FinishedAt = uc.clock.Now()
	if uc.history != nil {
		if err := uc.history.Record(out.Record); err != nil {
			uc.logger.Warn("history", fmt.Sprintf("record iteration: %v", err))
		}
	}
	return out, nil
}

func (uc *RunIteration) iterate(ctx context.Context, in RunIterationInput, st *domain.OrchestratorState, out *RunIterationOutput) error {
	for _, repo := range st.ClearExpiredPauses(uc.clock.Now()) {
		uc.logger.Info("iteration", fmt.Sprintf("cooldown expired for %s", repo))
	}
	policy := uc.config.BatchPolicy()
	st.ActiveBatch = policy.Clamp(st.ActiveBatch)
	if st.LastRepo == "" {
		st.LastRepo = uc.config.Replenish.PreferredRepo
	}
	out.Record.Batch = st.BatchCounter

	file, err := uc.ledger.Load()
	if err != nil {
		return err
	}
	tasks := file.FindNextTasks(st.LastRepo, st.PausedSet())
	if len(tasks) == 0 {
		uc.logger.Info("iteration", fmt.Sprintf("no pending tasks in %s", uc.config.Ledger.Path))
		rep, err := uc.replenish.Execute(ctx, ReplenishInput{State: st, File: file, Deadline: in.Deadline})
		if err != nil {
			return err
		}
		out.Replenish = rep
		out.Outcome = rep.Outcome
		out.Record.Repo = rep.Repo
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	uc.syncBranch(ctx, st)

	res, err := uc.batch.Execute(ctx, RunBatchInput{
		Tasks:       tasks,
		Policy:      policy,
		ActiveBatch: st.ActiveBatch,
	})
	if err != nil {
		return err
	}
	out.Batch = res
	out.Outcome = domain.OutcomeWorked
	out.Record.Repo = tasks[0].Repo
	out.Record.BatchSize = len(res.Batch)
	out.Record.Successes = len(res.Successes)
	out.Record.Failures = len(res.Failures)

	if len(res.Successes) > 0 {
		updates := make([]domain.TaskUpdate, len(res.Successes))
		hashes := make([]string, len(res.Successes))
		for i, t := range res.Successes {
			updates[i] = domain.TaskUpdate{Hash: t.Hash, Completed: true}
			hashes[i] = t.Hash
		}
		if err := uc.ledger.SetCompletion(updates); err != nil {
			uc.logger.Error("iteration", fmt.Sprintf("mark %d task(s) done: %v", len(updates), err))
		} else {
			st.RecordProcessed(hashes...)
		}
		out.Record.PublishURL = uc.publish(ctx, st, res.Successes)
	}

	switch {
	case len(res.Failures) > 0:
		st.LastRepo = res.Failures[0].Repo
	case len(res.Successes) > 0:
		st.LastRepo = res.Successes[len(res.Successes)-1].Repo
	}
	st.BatchCounter++
	out.Record.Batch = st.BatchCounter
	st.AdaptBatch(policy, len(res.Successes), len(res.Failures))
	uc.logger.Info("iteration", fmt.Sprintf("batch %d: %d succeeded, %d failed, next size %d",
		st.BatchCounter, len(res.Successes), len(res.Failures), st.ActiveBatch))

	if len(res.Successes) > 0 {
		out.Gates = uc.runGates(ctx, res.Successes[len(res.Successes)-1].Repo)
	}
	return nil
}

// syncBranch keeps the capability on the branch recorded in state.
func (uc *RunIteration) syncBranch(ctx context.Context, st *domain.OrchestratorState) {
	branch, err := shared.Call(ctx, uc.retrier, "active branch", uc.client.ActiveBranch)
	if err != nil {
		uc.logger.Warn("branch", err.Error())
		return
	}
	switch {
	case st.LastBranch != "" && branch != st.LastBranch:
		uc.logger.Info("branch", fmt.Sprintf("switching from %q to %q", branch, st.LastBranch))
		err := uc.retrier.Do(ctx, "select branch", func(ctx context.Context) error {
			return uc.client.SelectBranch(ctx, st.LastBranch)
		})
		if err != nil {
			uc.logger.Warn("branch", err.Error())
		}
	case branch != "":
		st.LastBranch = branch
	}
}

// publish opens a pull request once enough successes accumulated.
// A failed publish keeps the successes counted so the next iteration tries again.
func (uc *RunIteration) publish(ctx context.Context, st *domain.OrchestratorState, successes []domain.TaskItem) string {
	every := uc.config.Batch.PublishEvery
	total := st.SuccessModulo + len(successes)
	if total < every {
		st.SuccessModulo = total
		return ""
	}

	summary := domain.PublishSummary(st.BatchCounter + 1)
	result, err := shared.Call(ctx, uc.retrier, "create publish request", func(ctx context.Context) (*domain.PublishResult, error) {
		return uc.client.CreatePublishRequest(ctx, summary, domain.PublishDescription(successes))
	})
	if err != nil {
		uc.logger.Error("publish", err.Error())
		st.SuccessModulo = total
		return ""
	}
	st.SuccessModulo = total % every
	if result == nil {
		return ""
	}
	if result.Branch != "" {
		st.LastBranch = result.Branch
	}
	if result.URL != "" {
		uc.logger.Info("publish", fmt.Sprintf("opened %s", result.URL))
	}
	return result.URL
}

// runGates runs the quality gates on the repository checkout when it exists.
func (uc *RunIteration) runGates(ctx context.Context, repo string) *domain.GateSummary {
	gc := uc.config.Gates
	if uc.gates == nil || !gc.Enabled {
		return nil
	}
	dir := domain.RepoCheckoutPath(gc.ReposRoot, repo)
	if _, err := os.Stat(dir); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			uc.logger.Warn("gates", fmt.Sprintf("stat %s: %v", dir, err))
		}
		uc.logger.Debug("gates", fmt.Sprintf("no checkout for %s at %s", repo, dir))
		return nil
	}
	summary := uc.gates.Run(ctx, dir, gc.Commands())
	if !summary.Success {
		uc.logger.Warn("gates", fmt.Sprintf("quality checks failed for %s", repo))
	}
	return &summary
}

package usecase

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase/shared"
)

//go:embed replenish_prompt.tmpl
var defaultReplenishPrompt string

// ReplenishPromptData is what the replenishment prompt template is rendered with.
type ReplenishPromptData struct {
	Repo    string // Repository to plan for
	Context string // Existing tasks, one "✓ title" or "• title" per line
}

// ReplenishInput contains the parameters for replenishing the ledger.
type ReplenishInput struct {
	State    *domain.OrchestratorState // Mutated in place: cooldowns are set or cleared
	File     *domain.TaskFile          // Ledger as loaded for this iteration
	Deadline time.Time                 // No further rounds start after this time; zero means none
}

// ReplenishOutput contains the result of a replenishment attempt.
// Fields are ordered to minimize memory padding.
type ReplenishOutput struct {
	Outcome  domain.IterationOutcome // replenished, paused, halted or idle
	Repo     string                  // Repository the attempt targeted; empty when none was eligible
	Heading  string                  // Heading of the appended section
	Added    []string                // Appended titles
	Overflow []string                // Titles discarded above max_tasks
}

// Replenish asks the execution capability for new tasks when the ledger runs dry.
// Fields are ordered to minimize memory padding.
type Replenish struct {
	ledger  domain.Ledger
	client  domain.ExecutionClient
	waiter  domain.Waiter
	clock   domain.Clock
	logger  domain.Logger
	retrier *shared.Retrier
	config  *domain.Config
}

// NewReplenish creates a new Replenish use case.
func NewReplenish(
	ledger domain.Ledger,
	client domain.ExecutionClient,
	waiter domain.Waiter,
	clock domain.Clock,
	retrier *shared.Retrier,
	config *domain.Config,
	logger domain.Logger,
) *Replenish {
	return &Replenish{
		ledger:  ledger,
		client:  client,
		waiter:  waiter,
		clock:   clock,
		retrier: retrier,
		config:  config,
		logger:  logger,
	}
}

// Execute picks a repository and runs replenishment rounds for it.
// Backoff sleeps end with ctx or at the deadline; the attempt then stops with an idle
// outcome and the repository is left unpaused. Asks run to completion regardless of ctx.
func (uc *Replenish) Execute(ctx context.Context, in ReplenishInput) (*ReplenishOutput, error) {
	repo := uc.chooseRepo(in.State, in.File)
	if repo == "" {
		uc.logger.Info("replenish", "no eligible repository to replenish")
		return &ReplenishOutput{Outcome: domain.OutcomeIdle}, nil
	}
	out := &ReplenishOutput{Repo: repo}

	tmpl, err := uc.promptTemplate()
	if err != nil {
		return nil, err
	}
	var prompt strings.Builder
	if err := tmpl.Execute(&prompt, ReplenishPromptData{
		Repo:    repo,
		Context: domain.TaskContext(in.File.RepoSections(repo)),
	}); err != nil {
		return nil, fmt.Errorf("render replenish prompt: %w", err)
	}

	rc := uc.config.Replenish
	askCtx := context.WithoutCancel(ctx)
	for round := 1; round <= rc.Attempts; round++ {
		if round > 1 && !uc.backoff(ctx, in.Deadline, repo, round) {
			out.Outcome = domain.OutcomeIdle
			return out, nil
		}

		titles := uc.ask(askCtx, prompt.String())
		if len(titles) < rc.MinTasks {
			uc.logger.Info("replenish", fmt.Sprintf("round %d: %d item(s) for %s, asking once more", round, len(titles), repo))
			titles = domain.DedupeTitles(append(titles, uc.ask(askCtx, prompt.String())...))
		}
		if len(titles) < rc.MinTasks {
			uc.logger.Warn("replenish", fmt.Sprintf("round %d: only %d of %d required task(s) for %s", round, len(titles), rc.MinTasks, repo))
			continue
		}

		accepted, overflow := domain.CapTitles(titles, rc.MaxTasks)
		if len(overflow) > 0 {
			uc.logger.Warn("replenish", fmt.Sprintf("discarding %d task(s) above the limit of %d: %s",
				len(overflow), rc.MaxTasks, strings.Join(overflow, "; ")))
		}
		heading, err := uc.ledger.AppendSection(repo, accepted)
		if err != nil {
			return nil, fmt.Errorf("append section for %s: %w", repo, err)
		}
		in.State.ResumeRepo(repo)
		uc.logger.Info("replenish", fmt.Sprintf("appended %d task(s) under %q", len(accepted), heading))
		out.Outcome = domain.OutcomeReplenished
		out.Heading = heading
		out.Added = accepted
		out.Overflow = overflow
		return out, nil
	}

	if rc.OnEmpty == domain.EmptyPolicyHalt {
		uc.logger.Warn("replenish", fmt.Sprintf("no new tasks for %s; halting", repo))
		out.Outcome = domain.OutcomeHalted
		return out, nil
	}
	until := uc.clock.Now().Add(uc.config.Cooldown())
	in.State.PauseRepo(repo, until)
	uc.logger.Warn("replenish", fmt.Sprintf("no new tasks for %s; paused until %s", repo, until.Format(time.RFC3339)))
	out.Outcome = domain.OutcomePaused
	return out, nil
}

// backoff sleeps before another round, never past the deadline.
// It reports false when ctx is done or the deadline has passed.
func (uc *Replenish) backoff(ctx context.Context, deadline time.Time, repo string, round int) bool {
	wait := uc.config.ReplenishBackoff()
	if !deadline.IsZero() {
		wait = min(wait, deadline.Sub(uc.clock.Now()))
	}
	if wait > 0 {
		uc.logger.Info("replenish", fmt.Sprintf("waiting %s before round %d for %s", wait, round, repo))
		if err := uc.waiter.Wait(ctx, wait); err != nil {
			uc.logger.Info("replenish", fmt.Sprintf("stopped replenishing %s: %v", repo, err))
			return false
		}
	}
	if ctx.Err() != nil {
		uc.logger.Info("replenish", fmt.Sprintf("stopped replenishing %s: %v", repo, ctx.Err()))
		return false
	}
	if !deadline.IsZero() && !uc.clock.Now().Before(deadline) {
		uc.logger.Info("replenish", fmt.Sprintf("stopped replenishing %s: deadline reached before round %d", repo, round))
		return false
	}
	return true
}

// chooseRepo prefers the last active repository, then the most recently defined
// section, then the configured fallback. Paused repositories are never chosen.
func (uc *Replenish) chooseRepo(state *domain.OrchestratorState, file *domain.TaskFile) string {
	eligible := func(repo string) bool {
		return repo != "" && !state.IsPaused(repo)
	}
	if eligible(state.LastRepo) {
		return state.LastRepo
	}
	for _, repo := range file.Repos() {
		if eligible(repo) {
			return repo
		}
	}
	if eligible(uc.config.Replenish.FallbackRepo) {
		return uc.config.Replenish.FallbackRepo
	}
	return ""
}

// ask sends the prompt and returns the unique checklist titles of the answer.
// A failed ask yields no titles.
func (uc *Replenish) ask(ctx context.Context, prompt string) []string {
	answer, err := shared.Call(ctx, uc.retrier, "ask", func(ctx context.Context) (string, error) {
		return uc.client.Ask(ctx, prompt)
	})
	if err != nil {
		uc.logger.Warn("replenish", err.Error())
		return nil
	}
	return domain.DedupeTitles(domain.ParseChecklist(answer))
}

func (uc *Replenish) promptTemplate() (*template.Template, error) {
	text := defaultReplenishPrompt
	if path := uc.config.Replenish.PromptFile; path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's config
		if err != nil {
			return nil, fmt.Errorf("read prompt file: %w", err)
		}
		text = string(data)
	}
	tmpl, err := template.New("replenish").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return tmpl, nil
}

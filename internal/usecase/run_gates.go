package usecase

import (
	"context"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// RunGatesInput contains the parameters for running quality gates by hand.
type RunGatesInput struct {
	Repo string // Repository below gates.repos_root; empty runs in the working directory
}

// RunGatesOutput contains the gate results.
type RunGatesOutput struct {
	Dir     string
	Summary domain.GateSummary
}

// RunGates runs the configured quality gates.
type RunGates struct {
	runner domain.GateRunner
	config *domain.Config
}

// NewRunGates creates a new RunGates use case.
func NewRunGates(runner domain.GateRunner, config *domain.Config) *RunGates {
	return &RunGates{
		runner: runner,
		config: config,
	}
}

// Execute runs the gates. Disabled gates succeed without running anything.
func (uc *RunGates) Execute(ctx context.Context, in RunGatesInput) (*RunGatesOutput, error) {
	gc := uc.config.Gates
	out := &RunGatesOutput{Dir: "."}
	if in.Repo != "" {
		out.Dir = domain.RepoCheckoutPath(gc.ReposRoot, in.Repo)
	}
	if !gc.Enabled {
		out.Summary = domain.GateSummary{Success: true}
		return out, nil
	}
	out.Summary = uc.runner.Run(ctx, out.Dir, gc.Commands())
	return out, nil
}

package agent

import (
	"fmt"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// New creates the execution capability selected by cfg.Executor.Driver.
func New(cfg *domain.Config, logger domain.Logger) (domain.ExecutionClient, error) {
	switch cfg.Executor.Driver {
	case domain.DriverNoop:
		return NewNoopClient(logger), nil
	case domain.DriverCommand, "":
		return NewCommandClient(cfg.Executor.Command, cfg.Executor.Workdir, cfg.GitHub.BaseBranch, logger)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownDriver, cfg.Executor.Driver)
	}
}

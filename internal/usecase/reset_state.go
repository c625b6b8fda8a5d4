package usecase

import (
	"context"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// ResetStateInput contains the input for the ResetState use case.
type ResetStateInput struct{}

// ResetStateOutput contains the output of the ResetState use case.
type ResetStateOutput struct{}

// ResetState replaces the persisted state with a fresh one.
// The ledger is not touched.
type ResetState struct {
	state  domain.StateRepository
	logger domain.Logger
}

// NewResetState creates a new ResetState use case.
func NewResetState(state domain.StateRepository, logger domain.Logger) *ResetState {
	return &ResetState{
		state:  state,
		logger: logger,
	}
}

// Execute resets the state under the lock.
func (uc *ResetState) Execute(ctx context.Context, _ ResetStateInput) (*ResetStateOutput, error) {
	if err := uc.state.Reset(ctx); err != nil {
		return nil, err
	}
	uc.logger.Info("state", "state reset")
	return &ResetStateOutput{}, nil
}

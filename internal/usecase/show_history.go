package usecase

import (
	"context"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// DefaultHistoryLimit is how many iterations `history` shows by default.
const DefaultHistoryLimit = 20

// ShowHistoryInput contains the input for the ShowHistory use case.
type ShowHistoryInput struct {
	Limit int // Zero uses DefaultHistoryLimit; negative shows everything
}

// ShowHistoryOutput contains the recorded iterations, newest first.
type ShowHistoryOutput struct {
	Records []domain.IterationRecord
}

// ShowHistory lists recorded iterations.
type ShowHistory struct {
	history domain.HistoryRepository
}

// NewShowHistory creates a new ShowHistory use case.
func NewShowHistory(history domain.HistoryRepository) *ShowHistory {
	return &ShowHistory{history: history}
}

// Execute reads the most recent records.
func (uc *ShowHistory) Execute(_ context.Context, in ShowHistoryInput) (*ShowHistoryOutput, error) {
	limit := in.Limit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	records, err := uc.history.Recent(limit)
	if err != nil {
		return nil, err
	}
	return &ShowHistoryOutput{Records: records}, nil
}

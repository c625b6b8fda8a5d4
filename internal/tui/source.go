package tui

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// historyRows is how many iterations the dashboard shows.
const historyRows = 50

// Source is what the dashboard reads and drives.
type Source interface {
	Status(ctx context.Context) (*usecase.ShowStatusOutput, error)
	History(ctx context.Context) ([]domain.IterationRecord, error)
	RunOnce(ctx context.Context) (domain.IterationOutcome, error)
	Ledger(ctx context.Context) (string, error)
}

// ContainerSource serves the dashboard from the application container.
type ContainerSource struct {
	container *app.Container
}

// NewContainerSource creates a Source backed by c.
func NewContainerSource(c *app.Container) *ContainerSource {
	return &ContainerSource{container: c}
}

// Status returns the status snapshot.
func (s *ContainerSource) Status(ctx context.Context) (*usecase.ShowStatusOutput, error) {
	return s.container.ShowStatusUseCase().Execute(ctx, usecase.ShowStatusInput{})
}

// History returns recent iterations, newest first.
func (s *ContainerSource) History(ctx context.Context) ([]domain.IterationRecord, error) {
	uc, err := s.container.ShowHistoryUseCase()
	if err != nil {
		return nil, err
	}
	out, err := uc.Execute(ctx, usecase.ShowHistoryInput{Limit: historyRows})
	if err != nil {
		return nil, err
	}
	return out.Records, nil
}

// RunOnce runs a single iteration.
func (s *ContainerSource) RunOnce(ctx context.Context) (domain.IterationOutcome, error) {
	uc, err := s.container.RunLoopUseCase(nil)
	if err != nil {
		return "", err
	}
	out, err := uc.Execute(ctx, usecase.RunLoopInput{MaxIterations: 1})
	if err != nil {
		return "", err
	}
	return out.LastOutcome, nil
}

// Ledger returns the raw ledger text; a missing ledger reads as empty.
func (s *ContainerSource) Ledger(context.Context) (string, error) {
	data, err := os.ReadFile(s.container.Config.LedgerPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

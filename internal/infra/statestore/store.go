// Package statestore persists the orchestrator state as a JSON document guarded by a lock file.
package statestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/infra/filelock"
)

// Ensure Store implements domain.StateRepository interface.
var _ domain.StateRepository = (*Store)(nil)

// Keys written by older releases, read as aliases of the current fields.
var legacyAliases = map[string]string{
	"successesMod": "successModulo",
	"batchSize":    "activeBatch",
}

// Store implements domain.StateRepository using a JSON file.
type Store struct {
	logger   domain.Logger
	path     string
	lockPath string
	lockOpts filelock.Options
}

// New creates a Store for the state file at path, locked through lockPath.
// The file does not need to exist; it will be created on first write.
func New(path, lockPath string, lockOpts filelock.Options, logger domain.Logger) *Store {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Store{
		path:     path,
		lockPath: lockPath,
		lockOpts: lockOpts,
		logger:   logger,
	}
}

// Read returns the persisted state, or a fresh state when the file is missing.
// It does not take the lock; use WithState for read-modify-write.
func (s *Store) Read() (*domain.OrchestratorState, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewState(), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return decode(content)
}

// Write replaces the state file.
func (s *Store) Write(state *domain.OrchestratorState) error {
	state.Normalize()
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	content = append(content, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// WithState runs fn while holding the lock and persists the state fn leaves behind.
// When fn fails nothing is written; the lock is released either way.
func (s *Store) WithState(ctx context.Context, fn func(ctx context.Context, state *domain.OrchestratorState) error) error {
	lock, err := filelock.Acquire(ctx, s.lockPath, filelock.NewOwnerToken(), s.lockOpts, s.logger)
	if err != nil {
		return err
	}
	defer lock.Release()

	state, err := s.Read()
	if err != nil {
		return err
	}

	if err := fn(ctx, state); err != nil {
		return err
	}

	return s.Write(state)
}

// Reset persists a fresh state under the lock.
func (s *Store) Reset(ctx context.Context) error {
	return s.WithState(ctx, func(_ context.Context, state *domain.OrchestratorState) error {
		*state = *domain.NewState()
		s.logger.Info("state", "state reset")
		return nil
	})
}

func decode(content []byte) (*domain.OrchestratorState, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedState, err)
	}

	for legacy, current := range legacyAliases {
		value, ok := raw[legacy]
		if !ok {
			continue
		}
		if _, exists := raw[current]; !exists {
			raw[current] = value
		}
		delete(raw, legacy)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedState, err)
	}

	state := domain.NewState()
	if err := json.Unmarshal(normalized, state); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedState, err)
	}
	state.Normalize()
	return state, nil
}

package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Ensure Store implements domain.Ledger interface.
var _ domain.Ledger = (*Store)(nil)

// Store implements domain.Ledger on a markdown file.
// The file is not locked: a single orchestrator is expected to drive ledger mutations.
type Store struct {
	logger  domain.Logger
	watcher *Watcher
	path    string
	mu      sync.Mutex
}

// NewStore creates a Store for the ledger at path.
// The file does not need to exist; it is created on first append.
func NewStore(path string, logger domain.Logger) *Store {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &Store{path: path, logger: logger}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Watch starts watching the ledger for edits made outside this Store.
// Writes made through the Store are not signalled.
func (s *Store) Watch() (*Watcher, error) {
	w, err := Watch(s.path, s.logger)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.watcher = w
	s.mu.Unlock()
	return w, nil
}

// Load parses the ledger file. A missing file yields an empty TaskFile.
func (s *Store) Load() (*domain.TaskFile, error) {
	source, err := s.read()
	if err != nil {
		return nil, err
	}
	return Parse(source), nil
}

// SetCompletion rewrites the checkbox of every listed task.
func (s *Store) SetCompletion(updates []domain.TaskUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	source, err := s.read()
	if err != nil {
		return err
	}

	file := Parse(source)
	patches := CompletionPatches(file, updates)
	if len(patches) == 0 {
		s.logger.Debug("ledger", "no matching tasks to update")
		return nil
	}
	if err := s.write(Render(ApplyPatches(file.Lines, patches))); err != nil {
		return err
	}
	s.logger.Info("ledger", fmt.Sprintf("updated %d task(s) in %s", len(patches), s.path))
	return nil
}

// AppendSection appends a new versioned section for repo.
func (s *Store) AppendSection(repo string, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", nil
	}
	source, err := s.read()
	if err != nil {
		return "", err
	}

	content, heading := AppendSection(source, repo, titles)
	if err := s.write(content); err != nil {
		return "", err
	}
	s.logger.Info("ledger", fmt.Sprintf("appended section %q with %d task(s)", heading, len(titles)))
	return heading, nil
}

func (s *Store) read() (string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedLedger, err)
	}
	return string(content), nil
}

func (s *Store) write(content string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.expect(content)
	}
	s.mu.Unlock()
	if err := atomic.WriteFile(s.path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

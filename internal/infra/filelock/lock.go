// Package filelock provides cross-process advisory locking through exclusive file creation.
package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Default polling parameters.
const (
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultMaxAttempts   = 40
)

// Options controls lock acquisition polling.
type Options struct {
	RetryInterval time.Duration
	MaxAttempts   int
}

// DefaultOptions returns the default polling parameters.
func DefaultOptions() Options {
	return Options{RetryInterval: DefaultRetryInterval, MaxAttempts: DefaultMaxAttempts}
}

// Lock is a held lock file. Existence of the file means the lock is held.
type Lock struct {
	logger domain.Logger
	path   string
	owner  string
}

// NewOwnerToken returns a token unique to this acquisition: "<pid>-<uuid>".
func NewOwnerToken() string {
	return fmt.Sprintf("%d-%s", os.Getpid(), uuid.NewString())
}

// Acquire creates the lock file at path holding owner.
// While another owner holds it, Acquire polls every RetryInterval up to MaxAttempts
// and then fails with domain.ErrLockTimeout. Any other filesystem error is returned immediately.
func Acquire(ctx context.Context, path, owner string, opts Options, logger domain.Logger) (*Lock, error) {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := create(path, owner)
		if err == nil {
			logger.Debug("lock", fmt.Sprintf("acquired %s", path))
			return &Lock{path: path, owner: owner, logger: logger}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	holder, _ := os.ReadFile(path)
	return nil, fmt.Errorf("%w: %s held by %q after %d attempts",
		domain.ErrLockTimeout, path, strings.TrimSpace(string(holder)), opts.MaxAttempts)
}

func create(path, owner string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return err
		}
		return fmt.Errorf("open lock file %s: %w", path, err)
	}
	if _, err := f.WriteString(owner); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write lock file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close lock file %s: %w", path, err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Owner returns the token written into the lock file.
func (l *Lock) Owner() string {
	return l.owner
}

// Release deletes the lock file if it still records this lock's owner.
// A lock owned by someone else is left in place with a warning; stale locks need manual removal.
func (l *Lock) Release() {
	content, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("lock", fmt.Sprintf("lock %s already gone on release", l.path))
			return
		}
		l.logger.Warn("lock", fmt.Sprintf("read lock %s: %v", l.path, err))
		return
	}

	if holder := strings.TrimSpace(string(content)); holder != l.owner {
		l.logger.Warn("lock", fmt.Sprintf("lock %s is owned by %q, not releasing", l.path, holder))
		return
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("lock", fmt.Sprintf("remove lock %s: %v", l.path, err))
		return
	}
	l.logger.Debug("lock", fmt.Sprintf("released %s", l.path))
}

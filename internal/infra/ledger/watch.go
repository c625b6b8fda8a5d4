package ledger

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Watcher signals when the ledger file changes on disk.
// The ledger's directory is watched so editors that replace the file are still seen.
// Events that leave the content unchanged, including writes announced through
// expect, are not signalled.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  domain.Logger
	changes chan struct{}
	done    chan struct{}
	target  string
	once    sync.Once
	mu      sync.Mutex
	known   [sha256.Size]byte
}

// Watch starts watching the ledger at path.
func Watch(path string, logger domain.Logger) (*Watcher, error) {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve ledger path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(target)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	w := &Watcher{
		watcher: fw,
		logger:  logger,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
		target:  target,
	}
	w.known, _ = w.digest()
	go w.run()
	return w, nil
}

// Changes delivers one signal per burst of ledger edits.
// Signals are coalesced: a pending, unread signal absorbs later ones.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("ledger", fmt.Sprintf("watch error: %v", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.target {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	sum, err := w.digest()
	if err != nil {
		w.logger.Debug("ledger", fmt.Sprintf("read after change: %v", err))
		return
	}
	w.mu.Lock()
	seen := sum == w.known
	w.known = sum
	w.mu.Unlock()
	if seen {
		return
	}
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// expect records content about to be written by this process so the
// resulting events are not signalled.
func (w *Watcher) expect(content string) {
	sum := sha256.Sum256([]byte(content))
	w.mu.Lock()
	w.known = sum
	w.mu.Unlock()
}

// digest hashes the current ledger content; a missing file hashes as empty.
func (w *Watcher) digest() ([sha256.Size]byte, error) {
	content, err := os.ReadFile(w.target)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(content), nil
}

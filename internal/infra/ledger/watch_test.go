package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func TestWatcher_SignalsLedgerWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.md")
	require.NoError(t, os.WriteFile(path, []byte("# api\n"), 0o600))

	w, err := Watch(path, nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("# api\n- [ ] new\n"), 0o600))

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change signal for the ledger")
	}
}

func TestStore_Watch_IgnoresOwnWrites(t *testing.T) {
	store, path := newTestStore(t, "# api\n- [ ] one\n")

	w, err := store.Watch()
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, store.SetCompletion([]domain.TaskUpdate{{Hash: domain.TaskHash("api", "one"), Completed: true}}))
	_, err = store.AppendSection("api", []string{"two"})
	require.NoError(t, err)

	select {
	case <-w.Changes():
		t.Fatal("writes through the store must not be signalled")
	case <-time.After(300 * time.Millisecond):
	}

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, current, 0o600))
	select {
	case <-w.Changes():
		t.Fatal("rewriting identical content must not be signalled")
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, append(current, []byte("- [ ] three\n")...), 0o600))
	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change signal for an outside edit")
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.md")

	w, err := Watch(path, nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func newTestStore(t *testing.T, content string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks", "todo.md")
	if content != "" {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return NewStore(path, nil), path
}

func TestStore_Load_Missing(t *testing.T) {
	store, _ := newTestStore(t, "")

	file, err := store.Load()

	require.NoError(t, err)
	assert.True(t, file.IsEmpty())
}

func TestStore_Load_Unreadable(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil) // a directory cannot be read as a file

	_, err := store.Load()

	assert.ErrorIs(t, err, domain.ErrMalformedLedger)
}

func TestStore_SetCompletion(t *testing.T) {
	store, path := newTestStore(t, "# api\n- [ ] one\n- [ ] two\n")
	hash := domain.TaskHash("api", "two")

	require.NoError(t, store.SetCompletion([]domain.TaskUpdate{{Hash: hash, Completed: true}}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# api\n- [ ] one\n- [x] two\n", string(content))
}

func TestStore_SetCompletion_Empty(t *testing.T) {
	store, path := newTestStore(t, "")

	require.NoError(t, store.SetCompletion(nil))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "no-op must not create the ledger")
}

func TestStore_AppendSection(t *testing.T) {
	store, _ := newTestStore(t, "")

	heading, err := store.AppendSection("api", []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, "api V2", heading)

	heading, err = store.AppendSection("api", []string{"three"})
	require.NoError(t, err)
	assert.Equal(t, "api V3", heading)

	file, err := store.Load()
	require.NoError(t, err)
	require.Len(t, file.Sections, 2)
	assert.Len(t, file.FindNextTasks("api", nil), 2)
	assert.Equal(t, 3, len(file.Sections[0].Tasks)+len(file.Sections[1].Tasks))
}

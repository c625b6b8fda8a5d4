package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func newTestContainer(t *testing.T, opts Options) *Container {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_DefaultPaths(t *testing.T) {
	dir := t.TempDir()

	c := newTestContainer(t, Options{WorkDir: dir})

	stateDir := filepath.Join(dir, domain.DefaultStateDir)
	assert.Equal(t, dir, c.Config.WorkDir)
	assert.Equal(t, stateDir, c.Config.StateDir)
	assert.Equal(t, filepath.Join(dir, "tasks", "todo.md"), c.Config.LedgerPath)
	assert.Equal(t, domain.StateFilePath(stateDir), c.Config.StatePath)
	assert.Equal(t, domain.HistoryDBPath(stateDir), c.Config.HistoryPath)
	assert.Equal(t, domain.LocalConfigPath(dir), c.Config.ConfigPath)
	assert.Equal(t, 3, c.AppConfig.Batch.Max)
}

func TestNew_LocalConfigAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := domain.LocalConfigPath(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(`
[ledger]
path = "/srv/ledger.md"

[state]
dir = "run"

[log]
level = "warn"
`), 0o600))

	c := newTestContainer(t, Options{WorkDir: dir, LogLevel: "debug"})

	assert.Equal(t, "/srv/ledger.md", c.Config.LedgerPath)
	assert.Equal(t, filepath.Join(dir, "run"), c.Config.StateDir)
	assert.Equal(t, "debug", c.AppConfig.Log.Level)
}

func TestNew_ExplicitConfigMustExist(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := New(Options{WorkDir: t.TempDir(), ConfigPath: "missing.toml"})

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestContainer_ExecutionClientValidatesConfig(t *testing.T) {
	c := newTestContainer(t, Options{WorkDir: t.TempDir()})

	_, err := c.ExecutionClient()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = c.RunLoopUseCase(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestContainer_HistoryOpensOnce(t *testing.T) {
	c := newTestContainer(t, Options{WorkDir: t.TempDir()})

	first, err := c.History()
	require.NoError(t, err)
	second, err := c.History()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.FileExists(t, c.Config.HistoryPath)
}

func TestContainer_RunLoopUseCase(t *testing.T) {
	c := newTestContainer(t, Options{WorkDir: t.TempDir()})
	c.AppConfig.Executor.Driver = domain.DriverNoop

	uc, err := c.RunLoopUseCase(nil)

	require.NoError(t, err)
	assert.NotNil(t, uc)
}

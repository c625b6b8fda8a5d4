package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir())

	cfg, err := loader.Load()

	require.NoError(t, err)
	want := domain.NewDefaultConfig()
	want.Normalize()
	assert.Equal(t, want.Batch, cfg.Batch)
	assert.Equal(t, 2, cfg.Batch.Start)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_Load_LocalOverGlobal(t *testing.T) {
	workDir := t.TempDir()
	globalDir := t.TempDir()

	writeConfig(t, filepath.Join(globalDir, domain.ConfigFileName), `
[batch]
max = 5
publish_every = 4

[log]
level = "debug"
`)
	writeConfig(t, domain.LocalConfigPath(workDir), `
pause = true

[batch]
max = 6

[replenish]
on_empty = "halt"
fallback_repo = "api"

[executor]
command = "agent --stdin"
`)

	cfg, err := NewLoaderWithGlobalDir(workDir, globalDir).Load()
	require.NoError(t, err)

	assert.True(t, cfg.Pause)
	assert.Equal(t, 6, cfg.Batch.Max, "local wins")
	assert.Equal(t, 4, cfg.Batch.PublishEvery, "global kept where local is silent")
	assert.Equal(t, 1, cfg.Batch.Min, "default kept where both are silent")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, domain.EmptyPolicyHalt, cfg.Replenish.OnEmpty)
	assert.Equal(t, "api", cfg.Replenish.FallbackRepo)
	assert.Equal(t, "agent --stdin", cfg.Executor.Command)
	assert.NoError(t, cfg.Validate())
}

func TestLoader_Load_Warnings(t *testing.T) {
	workDir := t.TempDir()
	writeConfig(t, domain.LocalConfigPath(workDir), `
verbose = true

[batch]
size = 4

[workers]
default = "x"
`)

	cfg, err := NewLoaderWithGlobalDir(workDir, "").Load()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"unknown key in [batch]: size",
		"unknown key: verbose",
		"unknown section: workers",
	}, cfg.Warnings)
}

func TestLoader_Load_InvalidTOML(t *testing.T) {
	workDir := t.TempDir()
	writeConfig(t, domain.LocalConfigPath(workDir), "[batch\nmax = ")

	_, err := NewLoaderWithGlobalDir(workDir, "").Load()

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoader_Load_Token(t *testing.T) {
	workDir := t.TempDir()
	writeConfig(t, domain.LocalConfigPath(workDir), "[github]\ntoken_env = \"MY_TOKEN\"\n")

	loader := NewLoaderWithGlobalDir(workDir, "")
	loader.getenv = func(key string) string {
		if key == "MY_TOKEN" {
			return "secret"
		}
		return ""
	}

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.GitHub.Token)
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")

	_, err := NewFileLoader(path).Load()
	require.Error(t, err, "explicit config must exist")

	writeConfig(t, path, "[ledger]\npath = \"plan.md\"\n")
	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "plan.md", cfg.Ledger.Path)
	assert.Empty(t, NewFileLoader(path).GlobalPath())
}

func TestManager_Init(t *testing.T) {
	path := domain.LocalConfigPath(t.TempDir())
	m := NewManager(path)

	require.NoError(t, m.Init(false))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfigTemplate(), string(content))

	assert.ErrorIs(t, m.Init(false), domain.ErrConfigExists)
	assert.NoError(t, m.Init(true))
}

func TestTemplateLoadsAsDefaults(t *testing.T) {
	workDir := t.TempDir()
	require.NoError(t, NewManager(domain.LocalConfigPath(workDir)).Init(false))

	cfg, err := NewLoaderWithGlobalDir(workDir, "").Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, 3, cfg.Batch.Max)
}

func TestManager_Render(t *testing.T) {
	cfg := domain.NewDefaultConfig()
	cfg.GitHub.Token = "secret"

	out, err := NewManager("").Render(cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "[batch]")
	assert.Contains(t, out, "publish_every = 3")
	assert.NotContains(t, out, "secret")
}

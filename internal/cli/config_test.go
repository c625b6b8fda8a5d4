package cli

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func TestConfigInitCommand(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.execute(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created ")

	content, err := os.ReadFile(env.container.Config.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, domain.ConfigTemplate(), string(content))

	_, err = env.execute(t, "config", "init")
	assert.ErrorIs(t, err, domain.ErrConfigExists)

	_, err = env.execute(t, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigShowCommand(t *testing.T) {
	env := newTestEnv(t, "")
	env.container.AppConfig.Executor.Driver = domain.DriverCommand

	out, err := env.execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[batch]")
	assert.Contains(t, out, "Not runnable:")
}

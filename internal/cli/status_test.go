package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/testutil"
)

const statusLedger = "# api\n- [x] a\n- [ ] b\n\n# web\n- [ ] c\n"

func TestStatusCommand_Text(t *testing.T) {
	env := newTestEnv(t, statusLedger)
	env.state.State.LastRepo = "api"
	env.state.State.PauseRepo("web", time.Now().Add(time.Hour))

	out, err := env.execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Last repo")
	assert.Contains(t, out, "api")
	assert.Contains(t, out, "1/3 done")
	assert.Contains(t, out, "Paused")
}

func TestStatusCommand_JSON(t *testing.T) {
	env := newTestEnv(t, statusLedger)
	env.state.State.BatchCounter = 7

	out, err := env.execute(t, "status", "--format", "json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.EqualValues(t, 7, decoded["batchCounter"])
	assert.EqualValues(t, 3, decoded["total"])
}

func TestStatusCommand_YAML(t *testing.T) {
	env := newTestEnv(t, statusLedger)

	out, err := env.execute(t, "status", "-f", "yaml")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded["done"])
}

func TestStatusCommand_UnknownFormat(t *testing.T) {
	env := newTestEnv(t, statusLedger)

	_, err := env.execute(t, "status", "--format", "xml")

	assert.ErrorContains(t, err, "unknown format")
}

func TestHistoryCommand(t *testing.T) {
	env := newTestEnv(t, "")
	require.NoError(t, env.history.Record(domain.IterationRecord{
		Batch:      4,
		Outcome:    domain.OutcomeWorked,
		Repo:       "api",
		BatchSize:  2,
		Successes:  2,
		PublishURL: "https://example.test/pr/1",
	}))

	out, err := env.execute(t, "history", "--limit", "5")

	require.NoError(t, err)
	assert.Contains(t, out, "2 ok / 0 failed of 2")
	assert.Contains(t, out, "https://example.test/pr/1")
}

func TestHistoryCommand_Empty(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.execute(t, "history")

	require.NoError(t, err)
	assert.Contains(t, out, "No iterations recorded.")
}

func TestPRsCommand(t *testing.T) {
	env := newTestEnv(t, "")
	env.container.AppConfig.GitHub.Owner = "acme"
	env.container.AppConfig.GitHub.Repo = "platform"
	env.container.PullRequests = &testutil.MockPullRequestLister{PRs: []domain.PullRequest{
		{Number: 12, Title: "feat: ledgerloop batch 3", HeadRef: "ledgerloop/batch-3", URL: "https://example.test/pr/12"},
	}}

	out, err := env.execute(t, "prs")

	require.NoError(t, err)
	assert.Contains(t, out, "#12")
	assert.Contains(t, out, "ledgerloop/batch-3")
}

func TestGatesCommand(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := newTestEnv(t, "")

		out, err := env.execute(t, "gates")

		require.NoError(t, err)
		assert.Contains(t, out, "No gates ran")
	})

	t.Run("failure exits non-zero", func(t *testing.T) {
		env := newTestEnv(t, "")
		env.container.AppConfig.Gates = domain.GatesConfig{Enabled: true, Build: "true", Test: "false"}
		env.container.Gates = &testutil.MockGateRunner{Summary: domain.GateSummary{
			Results: []domain.GateResult{
				{Command: "true", Success: true},
				{Command: "false", Output: "boom\n"},
			},
		}}

		out, err := env.execute(t, "gates")

		require.ErrorIs(t, err, errGatesFailed)
		assert.Contains(t, out, "PASS true")
		assert.Contains(t, out, "boom")
	})
}

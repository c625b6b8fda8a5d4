package usecase_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/testutil"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

func checklist(prefix string, n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("- [ ] %s %d", prefix, i+1)
	}
	return "Here you go:\n" + strings.Join(lines, "\n") + "\n"
}

type replenishFixture struct {
	ledger *testutil.MemoryLedger
	client *testutil.MockExecutionClient
	waiter *testutil.MockWaiter
	clock  *testutil.MockClock
	config *domain.Config
	state  *domain.OrchestratorState
}

func newReplenishFixture(content string) *replenishFixture {
	clock := &testutil.MockClock{NowTime: time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)}
	return &replenishFixture{
		ledger: testutil.NewMemoryLedger(content),
		client: testutil.NewMockExecutionClient(),
		waiter: &testutil.MockWaiter{Clock: clock},
		clock:  clock,
		config: domain.NewDefaultConfig(),
		state:  domain.NewState(),
	}
}

func (f *replenishFixture) run(t *testing.T) *usecase.ReplenishOutput {
	t.Helper()
	return f.runWith(t, context.Background(), time.Time{})
}

func (f *replenishFixture) runWith(t *testing.T, ctx context.Context, deadline time.Time) *usecase.ReplenishOutput {
	t.Helper()
	file, err := f.ledger.Load()
	require.NoError(t, err)
	uc := usecase.NewReplenish(f.ledger, f.client, f.waiter, f.clock, newTestRetrier(), f.config, domain.NopLogger{})
	out, err := uc.Execute(ctx, usecase.ReplenishInput{State: f.state, File: file, Deadline: deadline})
	require.NoError(t, err)
	return out
}

func TestReplenish_Execute(t *testing.T) {
	const doneLedger = "# api\n- [x] Add retries\n- [x] Write docs\n"

	t.Run("five items trigger exactly one retry ask and merge", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.state.LastRepo = "api"
		f.client.Answers = []string{checklist("first", 5), checklist("second", 5)}

		out := f.run(t)

		assert.Equal(t, domain.OutcomeReplenished, out.Outcome)
		assert.Len(t, f.client.Prompts, 2)
		assert.Len(t, out.Added, 10)
		assert.Equal(t, "api V2", out.Heading)
		assert.Contains(t, f.ledger.Content, "# api V2\n- [ ] first 1\n")
		assert.Empty(t, f.waiter.Waits)
	})

	t.Run("thirteen items accept ten and discard three", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.client.Answers = []string{checklist("task", 13)}

		out := f.run(t)

		assert.Equal(t, domain.OutcomeReplenished, out.Outcome)
		assert.Len(t, f.client.Prompts, 1)
		assert.Len(t, out.Added, 10)
		assert.Equal(t, []string{"task 11", "task 12", "task 13"}, out.Overflow)
		assert.NotContains(t, f.ledger.Content, "task 11")
	})

	t.Run("duplicate items are counted once", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.client.Answers = []string{checklist("Same", 6) + checklist("same", 6)}

		out := f.run(t)

		assert.Equal(t, domain.OutcomeReplenished, out.Outcome)
		assert.Len(t, out.Added, 6)
		assert.Len(t, f.client.Prompts, 1)
	})

	t.Run("prompt carries repo and task context", func(t *testing.T) {
		f := newReplenishFixture("# api\n- [x] Add retries\n- [ ] Flaky one\n")
		f.client.Answers = []string{checklist("task", 6)}

		f.run(t)

		require.NotEmpty(t, f.client.Prompts)
		assert.Contains(t, f.client.Prompts[0], `"api"`)
		assert.Contains(t, f.client.Prompts[0], "✓ Add retries\n• Flaky one")
	})

	t.Run("prompt file overrides the default template", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		path := filepath.Join(t.TempDir(), "prompt.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("repo={{.Repo}}\n{{.Context}}"), 0o600))
		f.config.Replenish.PromptFile = path
		f.client.Answers = []string{checklist("task", 6)}

		f.run(t)

		assert.Equal(t, "repo=api\n✓ Add retries\n✓ Write docs", f.client.Prompts[0])
	})

	t.Run("exhausted rounds pause the repository", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.client.Answers = []string{"nothing to add"}
		start := f.clock.Now()

		out := f.run(t)

		assert.Equal(t, domain.OutcomePaused, out.Outcome)
		assert.Equal(t, "api", out.Repo)
		// three rounds, each with one retry ask
		assert.Len(t, f.client.Prompts, 6)
		assert.Equal(t, []time.Duration{300 * time.Second, 300 * time.Second}, f.waiter.Waits)
		require.Contains(t, f.state.PausedRepos, "api")
		assert.Equal(t, start.Add(600*time.Second).Add(30*time.Minute), f.state.PausedRepos["api"])
		assert.Equal(t, doneLedger, f.ledger.Content)
	})

	t.Run("cancellation during backoff stops without pausing", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.client.Answers = []string{"nothing to add"}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.waiter.OnWait = func(time.Duration) { cancel() }

		out := f.runWith(t, ctx, time.Time{})

		assert.Equal(t, domain.OutcomeIdle, out.Outcome)
		assert.Equal(t, "api", out.Repo)
		assert.Len(t, f.client.Prompts, 2)
		assert.Equal(t, []time.Duration{300 * time.Second}, f.waiter.Waits)
		assert.Empty(t, f.state.PausedRepos)
	})

	t.Run("backoff never sleeps past the deadline", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.client.Answers = []string{"nothing to add"}
		deadline := f.clock.Now().Add(time.Minute)

		out := f.runWith(t, context.Background(), deadline)

		assert.Equal(t, domain.OutcomeIdle, out.Outcome)
		assert.Len(t, f.client.Prompts, 2)
		assert.Equal(t, []time.Duration{time.Minute}, f.waiter.Waits)
		assert.Equal(t, deadline, f.clock.Now())
		assert.Empty(t, f.state.PausedRepos)
	})

	t.Run("deadline already passed skips further rounds", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.client.Answers = []string{"nothing to add"}

		out := f.runWith(t, context.Background(), f.clock.Now())

		assert.Equal(t, domain.OutcomeIdle, out.Outcome)
		assert.Len(t, f.client.Prompts, 2)
		assert.Empty(t, f.waiter.Waits)
	})

	t.Run("partial rounds are not accepted", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.config.Replenish.Attempts = 1
		f.client.Answers = []string{checklist("task", 2)}

		out := f.run(t)

		assert.Equal(t, domain.OutcomePaused, out.Outcome)
		assert.Empty(t, f.ledger.Appended)
	})

	t.Run("ask failures count as empty rounds", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.config.Replenish.Attempts = 1
		f.client.AskErr = assert.AnError

		out := f.run(t)

		assert.Equal(t, domain.OutcomePaused, out.Outcome)
	})

	t.Run("halt policy stops the loop", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.config.Replenish.OnEmpty = domain.EmptyPolicyHalt
		f.config.Replenish.Attempts = 1
		f.client.Answers = []string{""}

		out := f.run(t)

		assert.Equal(t, domain.OutcomeHalted, out.Outcome)
		assert.Empty(t, f.state.PausedRepos)
	})

	t.Run("skips paused last repo for the latest section", func(t *testing.T) {
		f := newReplenishFixture(doneLedger + "\n# web\n- [x] Fix header\n")
		f.state.LastRepo = "api"
		f.state.PauseRepo("api", f.clock.Now().Add(time.Hour))
		f.client.Answers = []string{checklist("task", 6)}

		out := f.run(t)

		assert.Equal(t, "web", out.Repo)
		assert.Equal(t, "web V2", out.Heading)
	})

	t.Run("falls back to configured repository", func(t *testing.T) {
		f := newReplenishFixture("")
		f.config.Replenish.FallbackRepo = "platform"
		f.client.Answers = []string{checklist("task", 6)}

		out := f.run(t)

		assert.Equal(t, "platform", out.Repo)
		assert.Equal(t, "platform V2", out.Heading)
		assert.True(t, strings.HasPrefix(f.ledger.Content, "# platform V2\n"))
	})

	t.Run("idle when every repository is paused", func(t *testing.T) {
		f := newReplenishFixture(doneLedger)
		f.state.PauseRepo("api", f.clock.Now().Add(time.Hour))

		out := f.run(t)

		assert.Equal(t, domain.OutcomeIdle, out.Outcome)
		assert.Empty(t, f.client.Prompts)
	})
}

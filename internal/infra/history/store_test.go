package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordRecent(t *testing.T) {
	store := newTestStore(t)
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Record(domain.IterationRecord{
			Batch:      i,
			Repo:       "api",
			Outcome:    domain.OutcomeWorked,
			BatchSize:  2,
			Successes:  i,
			Failures:   1,
			StartedAt:  start.Add(time.Duration(i) * time.Minute),
			FinishedAt: start.Add(time.Duration(i)*time.Minute + 30*time.Second),
		}))
	}

	recent, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, 3, recent[0].Batch, "newest first")
	assert.Equal(t, 2, recent[1].Batch)
	assert.Equal(t, domain.OutcomeWorked, recent[0].Outcome)
	assert.Equal(t, 3, recent[0].Successes)
	assert.True(t, recent[0].StartedAt.Equal(start.Add(3*time.Minute)))
	assert.True(t, recent[0].FinishedAt.Equal(start.Add(3*time.Minute+30*time.Second)))
	assert.NotZero(t, recent[0].ID)
}

func TestStore_Recent_CorruptTimestamp(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(domain.IterationRecord{
		Batch: 1, Outcome: domain.OutcomeIdle, StartedAt: now, FinishedAt: now,
	}))
	_, err := store.db.Exec(`UPDATE iterations SET finished_at = 'yesterday'`)
	require.NoError(t, err)

	_, err = store.Recent(0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse finished_at")
}

func TestStore_Recent_All(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Record(domain.IterationRecord{Outcome: domain.OutcomeIdle, PublishURL: "https://x/1"}))
	require.NoError(t, store.Record(domain.IterationRecord{Outcome: domain.OutcomePaused, Repo: "web"}))

	recent, err := store.Recent(0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "web", recent[0].Repo)
	assert.Equal(t, "https://x/1", recent[1].PublishURL)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Record(domain.IterationRecord{Outcome: domain.OutcomeReplenished}))
	require.NoError(t, first.Close())

	second, err := New(path)
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	recent, err := second.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

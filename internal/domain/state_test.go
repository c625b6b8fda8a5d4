package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorState_RecordProcessed(t *testing.T) {
	s := NewState()
	s.RecordProcessed("a", "b")
	s.RecordProcessed("b", "c")

	assert.Equal(t, []string{"a", "b", "c"}, s.ProcessedHashes)
}

func TestOrchestratorState_RecordProcessed_KeepsNewest(t *testing.T) {
	s := NewState()
	for i := 0; i < MaxProcessedHashes+20; i++ {
		s.RecordProcessed(fmt.Sprintf("h%d", i))
	}

	require.Len(t, s.ProcessedHashes, MaxProcessedHashes)
	assert.Equal(t, "h20", s.ProcessedHashes[0])
	assert.Equal(t, fmt.Sprintf("h%d", MaxProcessedHashes+19), s.ProcessedHashes[MaxProcessedHashes-1])
}

func TestOrchestratorState_Pauses(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := &OrchestratorState{}

	s.PauseRepo("web", now.Add(-time.Minute))
	s.PauseRepo("api", now)
	s.PauseRepo("cli", now.Add(time.Minute))
	assert.True(t, s.IsPaused("api"))
	assert.Equal(t, map[string]bool{"web": true, "api": true, "cli": true}, s.PausedSet())

	resumed := s.ClearExpiredPauses(now)

	assert.Equal(t, []string{"api", "web"}, resumed)
	assert.False(t, s.IsPaused("api"))
	assert.True(t, s.IsPaused("cli"))

	s.ResumeRepo("cli")
	assert.Empty(t, s.PausedRepos)
}

func TestOrchestratorState_Normalize(t *testing.T) {
	s := &OrchestratorState{}
	s.Normalize()

	assert.NotNil(t, s.ProcessedHashes)
	assert.NotNil(t, s.PausedRepos)
}

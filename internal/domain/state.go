package domain

import (
	"sort"
	"time"
)

// MaxProcessedHashes bounds the completed-hash history kept in state.
const MaxProcessedHashes = 500

// OrchestratorState is the durable progress record of the loop.
// It is only mutated inside StateRepository.WithState.
// Fields are ordered to minimize memory padding.
type OrchestratorState struct {
	PausedRepos        map[string]time.Time `json:"pausedRepos"`          // Repo -> cooldown expiry
	LastRepo           string               `json:"lastRepo,omitempty"`   // Repository of the last iteration
	LastBranch         string               `json:"lastBranch,omitempty"` // Last known working branch
	ProcessedHashes    []string             `json:"processedHashes"`      // Last completed identity hashes
	BatchCounter       int                  `json:"batchCounter"`         // Monotonic iteration counter
	SuccessModulo      int                  `json:"successModulo"`        // Successes accumulated toward the next publish
	ActiveBatch        int                  `json:"activeBatch"`          // Adaptive batch size
	SuccessGroupStreak int                  `json:"successGroupStreak"`   // Consecutive clean iterations
	FailureGroupStreak int                  `json:"failureGroupStreak"`   // Consecutive iterations with failures
}

// NewState returns the zero state used when nothing has been persisted yet.
func NewState() *OrchestratorState {
	return &OrchestratorState{
		ProcessedHashes: []string{},
		PausedRepos:     map[string]time.Time{},
	}
}

// Normalize replaces nil collections with empty ones.
func (s *OrchestratorState) Normalize() {
	if s.ProcessedHashes == nil {
		s.ProcessedHashes = []string{}
	}
	if s.PausedRepos == nil {
		s.PausedRepos = map[string]time.Time{}
	}
}

// RecordProcessed appends hashes to the history, skipping ones already present,
// and keeps only the newest MaxProcessedHashes entries.
func (s *OrchestratorState) RecordProcessed(hashes ...string) {
	seen := make(map[string]bool, len(s.ProcessedHashes))
	for _, h := range s.ProcessedHashes {
		seen[h] = true
	}
	for _, h := range hashes {
		if seen[h] {
			continue
		}
		seen[h] = true
		s.ProcessedHashes = append(s.ProcessedHashes, h)
	}
	if over := len(s.ProcessedHashes) - MaxProcessedHashes; over > 0 {
		s.ProcessedHashes = append([]string{}, s.ProcessedHashes[over:]...)
	}
}

// PauseRepo records a cooldown for repo that expires at until.
func (s *OrchestratorState) PauseRepo(repo string, until time.Time) {
	s.Normalize()
	s.PausedRepos[repo] = until
}

// ResumeRepo clears any cooldown recorded for repo.
func (s *OrchestratorState) ResumeRepo(repo string) {
	delete(s.PausedRepos, repo)
}

// IsPaused reports whether repo has a cooldown recorded.
func (s *OrchestratorState) IsPaused(repo string) bool {
	_, ok := s.PausedRepos[repo]
	return ok
}

// PausedSet returns the paused repositories as a lookup set.
func (s *OrchestratorState) PausedSet() map[string]bool {
	set := make(map[string]bool, len(s.PausedRepos))
	for repo := range s.PausedRepos {
		set[repo] = true
	}
	return set
}

// ClearExpiredPauses removes cooldowns whose expiry is not after now.
// It returns the resumed repositories in sorted order.
func (s *OrchestratorState) ClearExpiredPauses(now time.Time) []string {
	var resumed []string
	for repo, until := range s.PausedRepos {
		if !until.After(now) {
			resumed = append(resumed, repo)
		}
	}
	sort.Strings(resumed)
	for _, repo := range resumed {
		delete(s.PausedRepos, repo)
	}
	return resumed
}

package domain

// Streak length of clean iterations that grows the batch by one.
const growAfterCleanStreak = 2

// BatchPolicy bounds the adaptive batch size.
type BatchPolicy struct {
	Min   int
	Max   int
	Start int
}

// Clamp returns size forced into [Min, Max]. A zero size means "not yet chosen" and yields Start.
func (p BatchPolicy) Clamp(size int) int {
	if size <= 0 {
		size = p.Start
	}
	if size < p.Min {
		size = p.Min
	}
	if size > p.Max {
		size = p.Max
	}
	return size
}

// BatchResult is what the execution capability reports for one submission.
type BatchResult struct {
	Successes []TaskItem
	Failures  []TaskItem
	Notes     string
}

// Reconcile dedupes successes by hash and removes every failure that also succeeded.
// A task may flip from failed to succeeded, never the reverse.
func Reconcile(successes, failures []TaskItem) ([]TaskItem, []TaskItem) {
	ok := make(map[string]bool, len(successes))
	var uniq []TaskItem
	for _, t := range successes {
		if ok[t.Hash] {
			continue
		}
		ok[t.Hash] = true
		uniq = append(uniq, t)
	}

	failed := make(map[string]bool, len(failures))
	var remaining []TaskItem
	for _, t := range failures {
		if ok[t.Hash] || failed[t.Hash] {
			continue
		}
		failed[t.Hash] = true
		remaining = append(remaining, t)
	}
	return uniq, remaining
}

// AdaptBatch applies the outcome of one iteration to the adaptive batch size.
// Clean iterations build a streak that grows the batch by one every second time;
// any failure shrinks it by one immediately.
func (s *OrchestratorState) AdaptBatch(p BatchPolicy, successes, failures int) {
	s.ActiveBatch = p.Clamp(s.ActiveBatch)
	switch {
	case failures > 0:
		s.ActiveBatch = p.Clamp(max(s.ActiveBatch-1, p.Min))
		s.SuccessGroupStreak = 0
		s.FailureGroupStreak++
	case successes > 0:
		s.SuccessGroupStreak++
		s.FailureGroupStreak = 0
		if s.SuccessGroupStreak >= growAfterCleanStreak {
			s.ActiveBatch = min(s.ActiveBatch+1, p.Max)
			s.SuccessGroupStreak = 0
		}
	}
}

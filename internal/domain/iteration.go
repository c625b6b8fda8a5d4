package domain

import (
	"fmt"
	"strings"
)

// IterationOutcome tells the loop what to do after an iteration.
type IterationOutcome string

// Iteration outcomes.
const (
	OutcomeWorked      IterationOutcome = "worked"      // A batch was executed
	OutcomeReplenished IterationOutcome = "replenished" // New tasks were appended
	OutcomePaused      IterationOutcome = "paused"      // A repository was put on cooldown
	OutcomeIdle        IterationOutcome = "idle"        // Nothing to do, sleep
	OutcomeHalted      IterationOutcome = "halted"      // Replenishment exhausted under the halt policy
)

// ShouldSleep reports whether the loop sleeps for the poll interval after this outcome.
func (o IterationOutcome) ShouldSleep() bool {
	return o == OutcomeIdle
}

// PublishSummary returns the pull request title for the given batch number.
func PublishSummary(batch int) string {
	return fmt.Sprintf("feat: ledgerloop batch %d", batch)
}

// PublishDescription lists completed tasks as a markdown body.
func PublishDescription(tasks []TaskItem) string {
	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, "## Completed tasks")
	for _, t := range tasks {
		lines = append(lines, fmt.Sprintf("- %s: %s", t.Repo, t.Title))
	}
	return strings.Join(lines, "\n")
}

// Package agent provides the execution capability variants: a placeholder that
// performs nothing and a driver that runs an agent command per batch.
package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/runoshun/ledgerloop/internal/domain"
)

var reportRegex = regexp.MustCompile(`^\(([+-])\)\s+(.+)$`)

// BatchPrompt renders the prompt sent to the agent for a batch.
// Tasks are numbered from 1 in submission order.
func BatchPrompt(items []domain.TaskBatchItem) string {
	sorted := append([]domain.TaskBatchItem(nil), items...)
	domain.SortBatch(sorted)

	var b strings.Builder
	b.WriteString("Complete the following tasks in order.\n")
	b.WriteString("When finished, report every task on its own line as \"(+) <number>\" if it succeeded or \"(-) <number>\" if it failed.\n\n")
	for i, item := range sorted {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, item.Task.Repo, item.Task.Title)
	}
	return b.String()
}

// ParseReport maps the agent's report lines onto the batch.
// A task may be referenced by its number or its title. Tasks without a
// success line are failures; a later line for the same task wins.
func ParseReport(output string, items []domain.TaskBatchItem) *domain.BatchResult {
	sorted := append([]domain.TaskBatchItem(nil), items...)
	domain.SortBatch(sorted)

	outcome := make(map[int]bool, len(sorted))
	for _, line := range strings.Split(output, "\n") {
		m := reportRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		idx := resolve(strings.TrimSpace(m[2]), sorted)
		if idx < 0 {
			continue
		}
		outcome[idx] = m[1] == "+"
	}

	result := &domain.BatchResult{Notes: strings.TrimSpace(output)}
	for i, item := range sorted {
		if outcome[i] {
			result.Successes = append(result.Successes, item.Task)
		} else {
			result.Failures = append(result.Failures, item.Task)
		}
	}
	return result
}

// resolve returns the index of the task referenced by ref, or -1.
func resolve(ref string, sorted []domain.TaskBatchItem) int {
	if n, err := strconv.Atoi(strings.TrimSuffix(ref, ".")); err == nil {
		if n >= 1 && n <= len(sorted) {
			return n - 1
		}
		return -1
	}
	for i, item := range sorted {
		if strings.EqualFold(item.Task.Title, ref) {
			return i
		}
	}
	return -1
}

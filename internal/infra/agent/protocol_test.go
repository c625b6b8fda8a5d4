package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
)

func testBatch() []domain.TaskBatchItem {
	return domain.NewBatch([]domain.TaskItem{
		{Repo: "api", Title: "Add retries", Hash: "h1"},
		{Repo: "api", Title: "Write docs", Hash: "h2"},
		{Repo: "api", Title: "Fix lint", Hash: "h3"},
	})
}

func TestBatchPrompt(t *testing.T) {
	batch := testBatch()
	batch[0], batch[2] = batch[2], batch[0]

	prompt := BatchPrompt(batch)

	assert.Contains(t, prompt, "1. [api] Add retries\n2. [api] Write docs\n3. [api] Fix lint\n")
	assert.Contains(t, prompt, "(+) <number>")
	assert.Equal(t, "Fix lint", batch[0].Task.Title, "input must not be reordered")
}

func TestParseReport(t *testing.T) {
	output := "working...\n(+) 1\n  (-) 2  \n(+) write docs\n(+) 9\nnoise (+) 3\n"

	result := ParseReport(output, testBatch())

	require.Len(t, result.Successes, 2)
	assert.Equal(t, "h1", result.Successes[0].Hash)
	assert.Equal(t, "h2", result.Successes[1].Hash, "later line wins, titles match case-insensitively")
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "h3", result.Failures[0].Hash, "unreported task is a failure")
	assert.Contains(t, result.Notes, "working...")
}

func TestParseReport_Empty(t *testing.T) {
	result := ParseReport("", testBatch())

	assert.Empty(t, result.Successes)
	assert.Len(t, result.Failures, 3)
}

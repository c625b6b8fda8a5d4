package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/testutil"
	"github.com/runoshun/ledgerloop/internal/usecase"
	"github.com/runoshun/ledgerloop/internal/usecase/shared"
)

func newTestRetrier() *shared.Retrier {
	return shared.NewRetrier(time.Millisecond, nil)
}

func makeTasks(heading string, titles ...string) []domain.TaskItem {
	tasks := make([]domain.TaskItem, len(titles))
	for i, title := range titles {
		tasks[i] = domain.TaskItem{
			Repo:    domain.RepoFromHeading(heading),
			Heading: heading,
			Title:   title,
			Hash:    domain.TaskHash(heading, title),
		}
	}
	return tasks
}

func TestRunBatch_Execute(t *testing.T) {
	policy := domain.BatchPolicy{Min: 1, Max: 3, Start: 2}

	t.Run("selects active batch size in order", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()
		tasks := makeTasks("api", "a", "b", "c", "d")

		uc := usecase.NewRunBatch(client, newTestRetrier(), domain.NopLogger{})
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{
			Tasks:  tasks,
			Policy: policy,
		})

		require.NoError(t, err)
		require.Len(t, out.Batch, 2)
		assert.Equal(t, 0, out.Batch[0].Order)
		assert.Equal(t, "a", out.Batch[0].Task.Title)
		assert.Equal(t, 1, out.Batch[1].Order)
		assert.Len(t, out.Successes, 2)
		assert.Empty(t, out.Failures)
		require.Len(t, client.Submissions, 1)
	})

	t.Run("clamps active batch into bounds", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()
		tasks := makeTasks("api", "a", "b", "c", "d", "e")

		uc := usecase.NewRunBatch(client, newTestRetrier(), domain.NopLogger{})
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{
			Tasks:       tasks,
			Policy:      policy,
			ActiveBatch: 9,
		})

		require.NoError(t, err)
		assert.Len(t, out.Batch, 3)
	})

	t.Run("failed task succeeds on solo retry", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()
		tasks := makeTasks("api", "a", "b")
		client.FailCount[tasks[1].Hash] = 2

		uc := usecase.NewRunBatch(client, newTestRetrier(), domain.NopLogger{})
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{
			Tasks:  tasks,
			Policy: policy,
		})

		require.NoError(t, err)
		assert.Len(t, out.Successes, 2)
		assert.Empty(t, out.Failures)
		// batch, failed solo retry, successful solo retry
		require.Len(t, client.Submissions, 3)
		assert.Len(t, client.Submissions[1], 1)
		assert.Equal(t, "b", client.Submissions[1][0].Task.Title)
	})

	t.Run("stops solo retries after three attempts", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()
		tasks := makeTasks("api", "a")
		client.AlwaysFail[tasks[0].Hash] = true

		uc := usecase.NewRunBatch(client, newTestRetrier(), domain.NopLogger{})
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{
			Tasks:  tasks,
			Policy: policy,
		})

		require.NoError(t, err)
		assert.Empty(t, out.Successes)
		require.Len(t, out.Failures, 1)
		assert.Len(t, client.Submissions, 4)
	})

	t.Run("exhausted submission counts every task as failed", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()
		boom := errors.New("capability down")
		client.SubmitErrs = []error{boom, boom, boom, boom, boom, boom, boom, boom, boom, boom, boom, boom}
		tasks := makeTasks("api", "a", "b")
		logger := testutil.NewRecordingLogger()

		uc := usecase.NewRunBatch(client, newTestRetrier(), logger)
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{
			Tasks:  tasks,
			Policy: policy,
		})

		require.NoError(t, err)
		assert.Empty(t, out.Successes)
		assert.Len(t, out.Failures, 2)
		// the three retried batch submissions only; no solo resubmissions
		assert.Len(t, client.Submissions, 3)
		assert.True(t, logger.Contains("ERROR", "submit batch"))
		assert.False(t, logger.Contains("WARN", "retrying each individually"))
	})

	t.Run("transient submission error is retried", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()
		client.SubmitErrs = []error{errors.New("flaky")}
		tasks := makeTasks("api", "a")

		uc := usecase.NewRunBatch(client, newTestRetrier(), domain.NopLogger{})
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{
			Tasks:  tasks,
			Policy: policy,
		})

		require.NoError(t, err)
		assert.Len(t, out.Successes, 1)
		assert.Len(t, client.Submissions, 2)
	})

	t.Run("no tasks submits nothing", func(t *testing.T) {
		client := testutil.NewMockExecutionClient()

		uc := usecase.NewRunBatch(client, newTestRetrier(), domain.NopLogger{})
		out, err := uc.Execute(context.Background(), usecase.RunBatchInput{Policy: policy})

		require.NoError(t, err)
		assert.Empty(t, out.Batch)
		assert.Empty(t, client.Submissions)
	})
}

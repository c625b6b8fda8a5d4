package agent

import (
	"context"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Ensure NoopClient implements domain.ExecutionClient interface.
var _ domain.ExecutionClient = (*NoopClient)(nil)

// NoopClient is a placeholder capability: it performs nothing and reports every task as failed.
type NoopClient struct {
	logger domain.Logger
}

// NewNoopClient creates a NoopClient.
func NewNoopClient(logger domain.Logger) *NoopClient {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	return &NoopClient{logger: logger}
}

// SubmitBatch reports every task as failed.
func (c *NoopClient) SubmitBatch(_ context.Context, batch []domain.TaskBatchItem) (*domain.BatchResult, error) {
	c.logger.Debug("agent", "noop driver: batch not executed")
	result := &domain.BatchResult{Notes: "noop driver"}
	for _, item := range batch {
		result.Failures = append(result.Failures, item.Task)
	}
	return result, nil
}

// Ask returns an empty answer.
func (c *NoopClient) Ask(context.Context, string) (string, error) {
	return "", nil
}

// CreatePublishRequest returns an empty result.
func (c *NoopClient) CreatePublishRequest(context.Context, string, string) (*domain.PublishResult, error) {
	return &domain.PublishResult{}, nil
}

// ActiveBranch reports an unknown branch.
func (c *NoopClient) ActiveBranch(context.Context) (string, error) {
	return "", nil
}

// SelectBranch does nothing.
func (c *NoopClient) SelectBranch(context.Context, string) error {
	return nil
}

// Close does nothing.
func (c *NoopClient) Close() error {
	return nil
}

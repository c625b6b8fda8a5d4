package domain

import (
	"context"
	"time"
)

// Ledger reads and mutates the task ledger.
type Ledger interface {
	// Load parses the ledger. A missing ledger yields an empty TaskFile.
	Load() (*TaskFile, error)

	// SetCompletion rewrites the checkbox of every task whose hash is listed.
	// Unknown hashes are ignored; an empty update list is a no-op.
	SetCompletion(updates []TaskUpdate) error

	// AppendSection appends a new versioned section for repo and returns its heading.
	// An empty title list is a no-op and returns "".
	AppendSection(repo string, titles []string) (string, error)
}

// StateRepository owns the durable orchestrator state.
type StateRepository interface {
	// Read returns the persisted state, or a fresh state when none exists.
	Read() (*OrchestratorState, error)

	// Write replaces the persisted state.
	Write(state *OrchestratorState) error

	// WithState runs fn inside the cross-process lock window and persists the state
	// fn leaves behind. Nothing is written when fn returns an error.
	WithState(ctx context.Context, fn func(ctx context.Context, state *OrchestratorState) error) error

	// Reset persists a fresh state.
	Reset(ctx context.Context) error
}

// ExecutionClient is the external capability that performs tasks.
type ExecutionClient interface {
	// SubmitBatch executes the batch and reports successes and failures by task.
	SubmitBatch(ctx context.Context, batch []TaskBatchItem) (*BatchResult, error)

	// Ask sends a free-form prompt and returns the answer text.
	Ask(ctx context.Context, prompt string) (string, error)

	// CreatePublishRequest opens a pull request for accumulated work.
	CreatePublishRequest(ctx context.Context, summary, description string) (*PublishResult, error)

	// ActiveBranch returns the branch the capability works on, or "" when unknown.
	ActiveBranch(ctx context.Context) (string, error)

	// SelectBranch switches the capability to the named branch.
	SelectBranch(ctx context.Context, name string) error

	// Close releases resources held by the client.
	Close() error
}

// PublishResult describes a created pull request. Both fields are optional.
type PublishResult struct {
	URL    string
	Branch string
}

// PullRequest is an open pull request on the remote host.
// Fields are ordered to minimize memory padding.
type PullRequest struct {
	Title   string `json:"title" yaml:"title"`
	URL     string `json:"url" yaml:"url"`
	HeadRef string `json:"headRef" yaml:"headRef"`
	Number  int    `json:"number" yaml:"number"`
}

// PullRequestLister lists open pull requests. Implementations are best effort:
// transport failures yield an empty list.
type PullRequestLister interface {
	ListOpenRequests(ctx context.Context, owner, repo, token string) []PullRequest
}

// GateResult is the outcome of one quality-gate command.
type GateResult struct {
	Command string
	Output  string
	Success bool
}

// GateSummary is the outcome of a quality-gate run.
type GateSummary struct {
	Results []GateResult
	Success bool
}

// GateRunner runs quality-gate commands in order, stopping at the first failure.
type GateRunner interface {
	Run(ctx context.Context, dir string, commands []string) GateSummary
}

// IterationRecord is one row of iteration history.
// Fields are ordered to minimize memory padding.
type IterationRecord struct {
	StartedAt  time.Time        `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt" yaml:"finishedAt"`
	Repo       string           `json:"repo" yaml:"repo"`
	Outcome    IterationOutcome `json:"outcome" yaml:"outcome"`
	PublishURL string           `json:"publishUrl,omitempty" yaml:"publishUrl,omitempty"`
	ID         int64            `json:"id" yaml:"id"`
	Batch      int              `json:"batch" yaml:"batch"`
	BatchSize  int              `json:"batchSize" yaml:"batchSize"`
	Successes  int              `json:"successes" yaml:"successes"`
	Failures   int              `json:"failures" yaml:"failures"`
}

// HistoryRepository stores iteration history.
type HistoryRepository interface {
	Record(rec IterationRecord) error
	Recent(limit int) ([]IterationRecord, error)
	Close() error
}

// Waiter blocks between iterations.
type Waiter interface {
	// Wait returns after d, when woken early, or with ctx.Err() on cancellation.
	Wait(ctx context.Context, d time.Duration) error
}

// Logger is the logging port passed explicitly to components.
type Logger interface {
	Debug(category, msg string)
	Info(category, msg string)
	Warn(category, msg string)
	Error(category, msg string)
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (global + local over defaults).
	Load() (*Config, error)
}

// ConfigManager creates and renders configuration files.
type ConfigManager interface {
	// Path returns the config file Init writes.
	Path() string

	// Init writes the commented template, failing with ErrConfigExists unless force is set.
	Init(force bool) error

	// Render encodes the effective configuration as TOML.
	Render(cfg *Config) (string, error)
}

// Clock provides time operations for testability.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the system clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NopLogger discards every message.
type NopLogger struct{}

// Debug discards the message.
func (NopLogger) Debug(_, _ string) {}

// Info discards the message.
func (NopLogger) Info(_, _ string) {}

// Warn discards the message.
func (NopLogger) Warn(_, _ string) {}

// Error discards the message.
func (NopLogger) Error(_, _ string) {}

// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/infra/ledger"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}

// MemoryLedger is an in-memory domain.Ledger using the real parser and writer.
type MemoryLedger struct {
	LoadErr   error
	WriteErr  error
	Content   string
	Appended  []string // Headings returned by AppendSection
	Completed []domain.TaskUpdate
}

// NewMemoryLedger creates a MemoryLedger holding content.
func NewMemoryLedger(content string) *MemoryLedger {
	return &MemoryLedger{Content: content}
}

// Load parses the content.
func (m *MemoryLedger) Load() (*domain.TaskFile, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return ledger.Parse(m.Content), nil
}

// SetCompletion rewrites checkbox markers.
func (m *MemoryLedger) SetCompletion(updates []domain.TaskUpdate) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Completed = append(m.Completed, updates...)
	m.Content = ledger.RewriteCompletion(m.Content, updates)
	return nil
}

// AppendSection appends a versioned section.
func (m *MemoryLedger) AppendSection(repo string, titles []string) (string, error) {
	if m.WriteErr != nil {
		return "", m.WriteErr
	}
	content, heading := ledger.AppendSection(m.Content, repo, titles)
	m.Content = content
	if heading != "" {
		m.Appended = append(m.Appended, heading)
	}
	return heading, nil
}

// MemoryStateRepository is an in-memory domain.StateRepository.
// WithState is serialized by a mutex and only commits when fn succeeds.
// Fields are ordered to minimize memory padding.
type MemoryStateRepository struct {
	State    *domain.OrchestratorState
	ReadErr  error
	WriteErr error
	Writes   int
	mu       sync.Mutex
}

// NewMemoryStateRepository creates a repository holding a fresh state.
func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{State: domain.NewState()}
}

// Read returns a copy of the state.
func (m *MemoryStateRepository) Read() (*domain.OrchestratorState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return cloneState(m.State), nil
}

// Write replaces the state.
func (m *MemoryStateRepository) Write(state *domain.OrchestratorState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(state)
}

func (m *MemoryStateRepository) write(state *domain.OrchestratorState) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.State = cloneState(state)
	m.Writes++
	return nil
}

// WithState runs fn on a copy of the state and commits it when fn succeeds.
func (m *MemoryStateRepository) WithState(ctx context.Context, fn func(ctx context.Context, state *domain.OrchestratorState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return m.ReadErr
	}
	working := cloneState(m.State)
	if err := fn(ctx, working); err != nil {
		return err
	}
	return m.write(working)
}

// Reset replaces the state with a fresh one.
func (m *MemoryStateRepository) Reset(context.Context) error {
	return m.Write(domain.NewState())
}

func cloneState(s *domain.OrchestratorState) *domain.OrchestratorState {
	if s == nil {
		return domain.NewState()
	}
	c := *s
	c.ProcessedHashes = slices.Clone(s.ProcessedHashes)
	c.PausedRepos = maps.Clone(s.PausedRepos)
	c.Normalize()
	return &c
}

// PublishCall records a CreatePublishRequest invocation.
type PublishCall struct {
	Summary     string
	Description string
}

// MockExecutionClient is a scripted domain.ExecutionClient.
// Fields are ordered to minimize memory padding.
type MockExecutionClient struct {
	FailCount     map[string]int  // Hash -> submissions that still fail before it succeeds
	AlwaysFail    map[string]bool // Hashes that never succeed
	PublishResult *domain.PublishResult
	PublishErr    error
	AskErr        error
	BranchErr     error
	SelectErr     error
	SubmitErrs    []error  // Consumed per SubmitBatch call; nil entries proceed normally
	Answers       []string // Consumed per Ask call; the last answer repeats
	Submissions   [][]domain.TaskBatchItem
	Prompts       []string
	PublishCalls  []PublishCall
	Selected      []string
	Branch        string
	mu            sync.Mutex
	Closed        bool
}

// NewMockExecutionClient creates a client where every task succeeds.
func NewMockExecutionClient() *MockExecutionClient {
	return &MockExecutionClient{
		FailCount:  make(map[string]int),
		AlwaysFail: make(map[string]bool),
	}
}

// SubmitBatch applies the scripted outcomes.
func (m *MockExecutionClient) SubmitBatch(_ context.Context, batch []domain.TaskBatchItem) (*domain.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Submissions = append(m.Submissions, slices.Clone(batch))
	if len(m.SubmitErrs) > 0 {
		err := m.SubmitErrs[0]
		m.SubmitErrs = m.SubmitErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	result := &domain.BatchResult{}
	for _, item := range batch {
		hash := item.Task.Hash
		switch {
		case m.AlwaysFail[hash]:
			result.Failures = append(result.Failures, item.Task)
		case m.FailCount[hash] > 0:
			m.FailCount[hash]--
			result.Failures = append(result.Failures, item.Task)
		default:
			result.Successes = append(result.Successes, item.Task)
		}
	}
	return result, nil
}

// Ask returns the next scripted answer.
func (m *MockExecutionClient) Ask(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if m.AskErr != nil {
		return "", m.AskErr
	}
	if len(m.Answers) == 0 {
		return "", nil
	}
	answer := m.Answers[0]
	if len(m.Answers) > 1 {
		m.Answers = m.Answers[1:]
	}
	return answer, nil
}

// CreatePublishRequest records the call.
func (m *MockExecutionClient) CreatePublishRequest(_ context.Context, summary, description string) (*domain.PublishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls = append(m.PublishCalls, PublishCall{Summary: summary, Description: description})
	if m.PublishErr != nil {
		return nil, m.PublishErr
	}
	if m.PublishResult != nil {
		return m.PublishResult, nil
	}
	return &domain.PublishResult{}, nil
}

// ActiveBranch returns the configured branch.
func (m *MockExecutionClient) ActiveBranch(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Branch, m.BranchErr
}

// SelectBranch records the selection and switches the active branch.
func (m *MockExecutionClient) SelectBranch(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Selected = append(m.Selected, name)
	if m.SelectErr != nil {
		return m.SelectErr
	}
	m.Branch = name
	return nil
}

// Close marks the client closed.
func (m *MockExecutionClient) Close() error {
	m.Closed = true
	return nil
}

// MockWaiter records waits without sleeping.
type MockWaiter struct {
	Clock  *MockClock            // Advanced by each wait when set
	OnWait func(d time.Duration) // Called before the wait returns, e.g. to cancel a context
	Err    error
	Waits  []time.Duration
}

// Wait records d.
func (m *MockWaiter) Wait(ctx context.Context, d time.Duration) error {
	m.Waits = append(m.Waits, d)
	if m.Clock != nil {
		m.Clock.Advance(d)
	}
	if m.OnWait != nil {
		m.OnWait(d)
	}
	if m.Err != nil {
		return m.Err
	}
	return ctx.Err()
}

// GateCall records a GateRunner invocation.
type GateCall struct {
	Dir      string
	Commands []string
}

// MockGateRunner is a test double for domain.GateRunner.
type MockGateRunner struct {
	Calls   []GateCall
	Summary domain.GateSummary
}

// Run records the call and returns the configured summary.
func (m *MockGateRunner) Run(_ context.Context, dir string, commands []string) domain.GateSummary {
	m.Calls = append(m.Calls, GateCall{Dir: dir, Commands: commands})
	return m.Summary
}

// MockPullRequestLister is a test double for domain.PullRequestLister.
type MockPullRequestLister struct {
	PRs   []domain.PullRequest
	Calls []string // "owner/repo"
}

// ListOpenRequests returns the configured pull requests.
func (m *MockPullRequestLister) ListOpenRequests(_ context.Context, owner, repo, _ string) []domain.PullRequest {
	m.Calls = append(m.Calls, owner+"/"+repo)
	return m.PRs
}

// MockHistory is an in-memory domain.HistoryRepository.
type MockHistory struct {
	RecordErr error
	Records   []domain.IterationRecord
	Closed    bool
}

// Record appends rec.
func (m *MockHistory) Record(rec domain.IterationRecord) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	rec.ID = int64(len(m.Records) + 1)
	m.Records = append(m.Records, rec)
	return nil
}

// Recent returns up to limit records, newest first.
func (m *MockHistory) Recent(limit int) ([]domain.IterationRecord, error) {
	out := slices.Clone(m.Records)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close marks the history closed.
func (m *MockHistory) Close() error {
	m.Closed = true
	return nil
}

// LogEntry is one message captured by RecordingLogger.
type LogEntry struct {
	Level    string
	Category string
	Msg      string
}

// RecordingLogger captures log messages.
type RecordingLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// NewRecordingLogger creates a RecordingLogger.
func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) add(level, category, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Category: category, Msg: msg})
}

// Debug records a debug message.
func (l *RecordingLogger) Debug(category, msg string) { l.add("DEBUG", category, msg) }

// Info records an info message.
func (l *RecordingLogger) Info(category, msg string) { l.add("INFO", category, msg) }

// Warn records a warning.
func (l *RecordingLogger) Warn(category, msg string) { l.add("WARN", category, msg) }

// Error records an error.
func (l *RecordingLogger) Error(category, msg string) { l.add("ERROR", category, msg) }

// Contains reports whether a message at level contains substr.
func (l *RecordingLogger) Contains(level, substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitErr    error
	RenderErr  error
	ConfigPath string
	Rendered   string
	InitCalls  int
	Exists     bool
	Forced     bool
}

// Path returns the configured path.
func (m *MockConfigManager) Path() string {
	return m.ConfigPath
}

// Init records the call and fails with ErrConfigExists when Exists is set and force is not.
func (m *MockConfigManager) Init(force bool) error {
	m.InitCalls++
	m.Forced = force
	if m.InitErr != nil {
		return m.InitErr
	}
	if m.Exists && !force {
		return domain.ErrConfigExists
	}
	m.Exists = true
	return nil
}

// Render returns the configured rendering.
func (m *MockConfigManager) Render(*domain.Config) (string, error) {
	return m.Rendered, m.RenderErr
}

// Package app provides the dependency injection container for the application.
package app

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/infra/agent"
	"github.com/runoshun/ledgerloop/internal/infra/config"
	"github.com/runoshun/ledgerloop/internal/infra/filelock"
	"github.com/runoshun/ledgerloop/internal/infra/github"
	"github.com/runoshun/ledgerloop/internal/infra/history"
	"github.com/runoshun/ledgerloop/internal/infra/ledger"
	"github.com/runoshun/ledgerloop/internal/infra/logging"
	"github.com/runoshun/ledgerloop/internal/infra/runner"
	"github.com/runoshun/ledgerloop/internal/infra/statestore"
	"github.com/runoshun/ledgerloop/internal/infra/waiter"
	"github.com/runoshun/ledgerloop/internal/usecase"
	"github.com/runoshun/ledgerloop/internal/usecase/shared"
)

// Options selects where the container looks for its files.
type Options struct {
	Console    io.Writer // Receives log lines in addition to the log file; nil disables
	WorkDir    string    // Directory relative paths are resolved against
	ConfigPath string    // Explicit config file; empty uses global + local discovery
	LogLevel   string    // Overrides log.level when set
}

// Config holds the resolved application paths.
type Config struct {
	WorkDir     string // Directory relative paths are resolved against
	StateDir    string // Holds state.json, state.lock, history.db and logs/
	LedgerPath  string // Task ledger
	StatePath   string // Durable state document
	LockPath    string // Cross-process lock file
	HistoryPath string // Iteration history database
	ConfigPath  string // Config file written by `config init`
}

// newConfig resolves the application paths from the loaded configuration.
func newConfig(workDir, configPath string, appConfig *domain.Config) Config {
	stateDir := resolve(workDir, appConfig.State.Dir)
	return Config{
		WorkDir:     workDir,
		StateDir:    stateDir,
		LedgerPath:  resolve(workDir, appConfig.Ledger.Path),
		StatePath:   domain.StateFilePath(stateDir),
		LockPath:    domain.LockFilePath(stateDir),
		HistoryPath: domain.HistoryDBPath(stateDir),
		ConfigPath:  configPath,
	}
}

func resolve(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workDir, path)
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for use cases.
// Fields are ordered to minimize memory padding.
type Container struct {
	// Ports (interfaces bound to implementations)
	State         domain.StateRepository
	Ledger        domain.Ledger
	Clock         domain.Clock
	ConfigLoader  domain.ConfigLoader
	ConfigManager domain.ConfigManager
	Gates         domain.GateRunner
	PullRequests  domain.PullRequestLister
	Logger        domain.Logger

	// Opened on first use
	history domain.HistoryRepository
	client  domain.ExecutionClient

	logger  *logging.Logger // Concrete logger when built by New
	closers []io.Closer

	// Configuration
	AppConfig *domain.Config
	Config    Config

	mu sync.Mutex
}

// New loads the configuration and wires every port.
func New(opts Options) (*Container, error) {
	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	var loader *config.Loader
	if opts.ConfigPath != "" {
		loader = config.NewFileLoader(resolve(workDir, opts.ConfigPath))
	} else {
		loader = config.NewLoader(workDir)
	}
	appConfig, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		appConfig.Log.Level = opts.LogLevel
	}

	cfg := newConfig(workDir, loader.LocalPath(), appConfig)

	logger := logging.New(cfg.StateDir, logging.ParseLevel(appConfig.Log.Level), opts.Console)
	for _, w := range appConfig.Warnings {
		logger.Warn("config", w)
	}

	c := &Container{
		State:         statestore.New(cfg.StatePath, cfg.LockPath, filelock.DefaultOptions(), logger),
		Ledger:        ledger.NewStore(cfg.LedgerPath, logger),
		Clock:         domain.RealClock{},
		ConfigLoader:  loader,
		ConfigManager: config.NewManager(cfg.ConfigPath),
		Gates:         runner.NewClient(),
		PullRequests:  github.NewClient("", logger),
		Logger:        logger,
		AppConfig:     appConfig,
		Config:        cfg,
		logger:        logger,
	}
	c.closers = append(c.closers, logger)
	return c, nil
}

// NewWithDeps creates a new Container with custom dependencies for testing.
func NewWithDeps(
	cfg Config,
	appConfig *domain.Config,
	state domain.StateRepository,
	tasks domain.Ledger,
	client domain.ExecutionClient,
	iterations domain.HistoryRepository,
	clock domain.Clock,
	logger domain.Logger,
) *Container {
	return &Container{
		State:         state,
		Ledger:        tasks,
		Clock:         clock,
		ConfigManager: config.NewManager(cfg.ConfigPath),
		Gates:         runner.NewClient(),
		PullRequests:  github.NewClient("", logger),
		Logger:        logger,
		AppConfig:     appConfig,
		Config:        cfg,
		history:       iterations,
		client:        client,
	}
}

// QuietConsole stops log lines from reaching the console; the log file keeps them.
func (c *Container) QuietConsole() {
	if c.logger != nil {
		c.logger.SetConsole(nil)
	}
}

// History opens the iteration history database on first use.
func (c *Container) History() (domain.HistoryRepository, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.history != nil {
		return c.history, nil
	}
	store, err := history.New(c.Config.HistoryPath)
	if err != nil {
		return nil, err
	}
	c.history = store
	c.closers = append(c.closers, store)
	return store, nil
}

// ExecutionClient validates the configuration and creates the execution capability on first use.
func (c *Container) ExecutionClient() (domain.ExecutionClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if err := c.AppConfig.Validate(); err != nil {
		return nil, err
	}
	client, err := agent.New(c.AppConfig, c.Logger)
	if err != nil {
		return nil, err
	}
	c.client = client
	c.closers = append(c.closers, client)
	return client, nil
}

// Retrier returns the external-call retry wrapper.
func (c *Container) Retrier() *shared.Retrier {
	return shared.NewRetrier(c.AppConfig.RetryBackoff(), c.Logger)
}

// WatchLedger reports ledger edits made outside the loop; the returned watcher must be closed.
func (c *Container) WatchLedger() (*ledger.Watcher, error) {
	if store, ok := c.Ledger.(*ledger.Store); ok {
		return store.Watch()
	}
	return ledger.Watch(c.Config.LedgerPath, c.Logger)
}

// Close releases every resource opened by the container, newest first.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.closers = nil
	return firstErr
}

// UseCase factory methods

// RunIterationUseCase returns a new RunIteration use case.
// Replenishment backoff is not woken by ledger edits.
func (c *Container) RunIterationUseCase() (*usecase.RunIteration, error) {
	client, err := c.ExecutionClient()
	if err != nil {
		return nil, err
	}
	hist, err := c.History()
	if err != nil {
		c.Logger.Warn("history", fmt.Sprintf("iteration history disabled: %v", err))
		hist = nil
	}
	retrier := c.Retrier()
	return usecase.NewRunIteration(
		c.State,
		c.Ledger,
		client,
		usecase.NewRunBatch(client, retrier, c.Logger),
		usecase.NewReplenish(c.Ledger, client, waiter.New(nil), c.Clock, retrier, c.AppConfig, c.Logger),
		c.Gates,
		hist,
		c.Clock,
		retrier,
		c.AppConfig,
		c.Logger,
	), nil
}

// RunLoopUseCase returns a new RunLoop use case. Sleeps end early when wake fires.
func (c *Container) RunLoopUseCase(wake <-chan struct{}) (*usecase.RunLoop, error) {
	iteration, err := c.RunIterationUseCase()
	if err != nil {
		return nil, err
	}
	return usecase.NewRunLoop(iteration, waiter.New(wake), c.Clock, c.AppConfig, c.Logger), nil
}

// ShowStatusUseCase returns a new ShowStatus use case.
func (c *Container) ShowStatusUseCase() *usecase.ShowStatus {
	return usecase.NewShowStatus(c.State, c.Ledger, c.AppConfig)
}

// ResetStateUseCase returns a new ResetState use case.
func (c *Container) ResetStateUseCase() *usecase.ResetState {
	return usecase.NewResetState(c.State, c.Logger)
}

// ShowHistoryUseCase returns a new ShowHistory use case.
func (c *Container) ShowHistoryUseCase() (*usecase.ShowHistory, error) {
	hist, err := c.History()
	if err != nil {
		return nil, err
	}
	return usecase.NewShowHistory(hist), nil
}

// ListPRsUseCase returns a new ListPRs use case.
func (c *Container) ListPRsUseCase() *usecase.ListPRs {
	return usecase.NewListPRs(c.PullRequests, c.AppConfig)
}

// RunGatesUseCase returns a new RunGates use case.
func (c *Container) RunGatesUseCase() *usecase.RunGates {
	return usecase.NewRunGates(c.Gates, c.AppConfig)
}

// InitConfigUseCase returns a new InitConfig use case.
func (c *Container) InitConfigUseCase() *usecase.InitConfig {
	return usecase.NewInitConfig(c.ConfigManager)
}

// ShowConfigUseCase returns a new ShowConfig use case.
func (c *Container) ShowConfigUseCase() *usecase.ShowConfig {
	return usecase.NewShowConfig(c.ConfigManager, c.AppConfig)
}

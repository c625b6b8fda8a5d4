package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// ConfigTemplate returns the commented configuration template written by `config init`.
func ConfigTemplate() string {
	return configTemplateContent
}

// EmptyPolicy selects what happens when replenishment yields nothing.
type EmptyPolicy string

// Empty replenishment policies.
const (
	EmptyPolicyPause EmptyPolicy = "pause" // Put the repository on cooldown and continue
	EmptyPolicyHalt  EmptyPolicy = "halt"  // Stop the loop cleanly
)

// Executor drivers.
const (
	DriverCommand = "command"
	DriverNoop    = "noop"
)

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings  []string        `toml:"-"`
	GitHub    GitHubConfig    `toml:"github"`
	Ledger    LedgerConfig    `toml:"ledger"`
	State     StateConfig     `toml:"state"`
	Executor  ExecutorConfig  `toml:"executor"`
	Gates     GatesConfig     `toml:"gates"`
	Replenish ReplenishConfig `toml:"replenish"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Log       LogConfig       `toml:"log"`
	Loop      LoopConfig      `toml:"loop"`
	Batch     BatchConfig     `toml:"batch"`
	Pause     bool            `toml:"pause"`
}

// GitHubConfig holds remote repository settings from [github] section.
type GitHubConfig struct {
	Owner      string `toml:"owner,omitempty"`
	Repo       string `toml:"repo,omitempty"`
	BaseBranch string `toml:"base_branch,omitempty"`
	TokenEnv   string `toml:"token_env,omitempty"` // Environment variable holding the API token
	Token      string `toml:"-"`                   // Resolved from TokenEnv, never read from files
}

// LedgerConfig holds task ledger settings from [ledger] section.
type LedgerConfig struct {
	Path string `toml:"path,omitempty"`
}

// StateConfig holds durable state settings from [state] section.
type StateConfig struct {
	Dir string `toml:"dir,omitempty"` // Holds state.json, state.lock, history.db and logs/
}

// BatchConfig holds adaptive batch settings from [batch] section.
type BatchConfig struct {
	Min          int `toml:"min,omitempty"`
	Max          int `toml:"max,omitempty"`
	Start        int `toml:"start,omitempty"`
	PublishEvery int `toml:"publish_every,omitempty"`
}

// LoopConfig holds loop timing settings from [loop] section.
type LoopConfig struct {
	PollIntervalSec  int `toml:"poll_interval_sec,omitempty"`
	GlobalTimeoutSec int `toml:"global_timeout_sec,omitempty"`
	RetryBackoffMs   int `toml:"retry_backoff_ms,omitempty"` // First backoff of the external-call retry
}

// ReplenishConfig holds task replenishment settings from [replenish] section.
type ReplenishConfig struct {
	OnEmpty       EmptyPolicy `toml:"on_empty,omitempty"`
	FallbackRepo  string      `toml:"fallback_repo,omitempty"`
	PreferredRepo string      `toml:"preferred_repo,omitempty"`
	PromptFile    string      `toml:"prompt_file,omitempty"`
	MinTasks      int         `toml:"min_tasks,omitempty"`
	MaxTasks      int         `toml:"max_tasks,omitempty"`
	Attempts      int         `toml:"attempts,omitempty"`
	BackoffSec    int         `toml:"backoff_sec,omitempty"`
	CooldownMin   int         `toml:"cooldown_min,omitempty"`
}

// ExecutorConfig holds execution capability settings from [executor] section.
type ExecutorConfig struct {
	Driver  string `toml:"driver,omitempty"`  // "command" or "noop"
	Command string `toml:"command,omitempty"` // Shell command reading the prompt on stdin
	Workdir string `toml:"workdir,omitempty"` // Git checkout the agent works in
}

// GatesConfig holds quality-gate settings from [gates] section.
type GatesConfig struct {
	Build     string `toml:"build,omitempty"`
	Test      string `toml:"test,omitempty"`
	Lint      string `toml:"lint,omitempty"`
	ReposRoot string `toml:"repos_root,omitempty"` // Directory containing one checkout per repository
	Enabled   bool   `toml:"enabled,omitempty"`
}

// Commands returns the configured gate commands in execution order.
func (g GatesConfig) Commands() []string {
	var cmds []string
	for _, c := range []string{g.Build, g.Test, g.Lint} {
		if strings.TrimSpace(c) != "" {
			cmds = append(cmds, c)
		}
	}
	return cmds
}

// ScheduleConfig holds cron settings from [schedule] section.
type ScheduleConfig struct {
	Cron string `toml:"cron,omitempty"`
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // debug, info, warn, error
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseBranch: "main",
			TokenEnv:   "GITHUB_TOKEN",
		},
		Ledger: LedgerConfig{Path: "tasks/todo.md"},
		State:  StateConfig{Dir: DefaultStateDir},
		Batch: BatchConfig{
			Min:          1,
			Max:          3,
			PublishEvery: 3,
		},
		Loop: LoopConfig{
			PollIntervalSec:  60,
			GlobalTimeoutSec: 900,
			RetryBackoffMs:   1000,
		},
		Replenish: ReplenishConfig{
			OnEmpty:     EmptyPolicyPause,
			MinTasks:    6,
			MaxTasks:    10,
			Attempts:    3,
			BackoffSec:  300,
			CooldownMin: 30,
		},
		Executor: ExecutorConfig{
			Driver:  DriverCommand,
			Workdir: ".",
		},
		Gates: GatesConfig{ReposRoot: ".."},
		Log:   LogConfig{Level: "info"},
	}
}

// Normalize fills values derived from other settings.
func (c *Config) Normalize() {
	if c.Batch.Start == 0 && c.Batch.Max >= c.Batch.Min {
		c.Batch.Start = min(max(2, c.Batch.Min), c.Batch.Max)
	}
}

// Validate checks the configuration after filling derived values.
func (c *Config) Validate() error {
	c.Normalize()
	if c.Batch.Min < 1 {
		return fmt.Errorf("%w: batch.min must be at least 1", ErrInvalidConfig)
	}
	if c.Batch.Max < c.Batch.Min {
		return fmt.Errorf("%w: batch.max must be greater than or equal to batch.min", ErrInvalidConfig)
	}
	if c.Batch.Start < c.Batch.Min || c.Batch.Start > c.Batch.Max {
		return fmt.Errorf("%w: batch.start must fall between batch.min and batch.max", ErrInvalidConfig)
	}
	if c.Batch.PublishEvery < 1 {
		return fmt.Errorf("%w: batch.publish_every must be positive", ErrInvalidConfig)
	}
	if c.Loop.PollIntervalSec < 1 || c.Loop.GlobalTimeoutSec < 1 {
		return fmt.Errorf("%w: loop intervals must be positive", ErrInvalidConfig)
	}
	if c.Replenish.MinTasks < 1 || c.Replenish.MaxTasks < c.Replenish.MinTasks {
		return fmt.Errorf("%w: replenish.min_tasks must be positive and not exceed replenish.max_tasks", ErrInvalidConfig)
	}
	if c.Replenish.Attempts < 1 {
		return fmt.Errorf("%w: replenish.attempts must be positive", ErrInvalidConfig)
	}
	switch c.Replenish.OnEmpty {
	case EmptyPolicyPause, EmptyPolicyHalt:
	default:
		return fmt.Errorf("%w: replenish.on_empty must be %q or %q", ErrInvalidConfig, EmptyPolicyPause, EmptyPolicyHalt)
	}
	switch c.Executor.Driver {
	case DriverNoop:
	case DriverCommand:
		if strings.TrimSpace(c.Executor.Command) == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrEmptyCommand)
		}
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownDriver, c.Executor.Driver)
	}
	return nil
}

// BatchPolicy returns the adaptive batch bounds.
func (c *Config) BatchPolicy() BatchPolicy {
	return BatchPolicy{Min: c.Batch.Min, Max: c.Batch.Max, Start: c.Batch.Start}
}

// PollInterval returns the idle sleep duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Loop.PollIntervalSec) * time.Second
}

// GlobalTimeout returns the loop deadline offset.
func (c *Config) GlobalTimeout() time.Duration {
	return time.Duration(c.Loop.GlobalTimeoutSec) * time.Second
}

// RetryBackoff returns the first backoff of the external-call retry wrapper.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Loop.RetryBackoffMs) * time.Millisecond
}

// ReplenishBackoff returns the sleep between empty replenishment rounds.
func (c *Config) ReplenishBackoff() time.Duration {
	return time.Duration(c.Replenish.BackoffSec) * time.Second
}

// Cooldown returns how long a repository stays paused after empty replenishment.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Replenish.CooldownMin) * time.Minute
}

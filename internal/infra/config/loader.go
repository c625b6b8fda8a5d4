// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// knownKeys lists the accepted keys per section. The "" section holds top-level scalars.
var knownKeys = map[string][]string{
	"":          {"pause"},
	"github":    {"owner", "repo", "base_branch", "token_env"},
	"ledger":    {"path"},
	"state":     {"dir"},
	"batch":     {"min", "max", "start", "publish_every"},
	"loop":      {"poll_interval_sec", "global_timeout_sec", "retry_backoff_ms"},
	"replenish": {"min_tasks", "max_tasks", "attempts", "backoff_sec", "cooldown_min", "on_empty", "fallback_repo", "preferred_repo", "prompt_file"},
	"executor":  {"driver", "command", "workdir"},
	"gates":     {"enabled", "build", "test", "lint", "repos_root"},
	"schedule":  {"cron"},
	"log":       {"level"},
}

// Loader loads configuration from TOML files.
type Loader struct {
	getenv        func(string) string
	localPath     string // Working-directory config, or the file given with --config
	globalConfDir string // Path to global config directory (e.g., ~/.config/ledgerloop)
	explicit      bool   // localPath was given explicitly: it must exist and global config is skipped
}

// NewLoader creates a Loader for the working directory workDir.
func NewLoader(workDir string) *Loader {
	return &Loader{
		localPath:     domain.LocalConfigPath(workDir),
		globalConfDir: defaultGlobalConfigDir(),
		getenv:        os.Getenv,
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(workDir, globalConfDir string) *Loader {
	return &Loader{
		localPath:     domain.LocalConfigPath(workDir),
		globalConfDir: globalConfDir,
		getenv:        os.Getenv,
	}
}

// NewFileLoader creates a Loader that reads only the given file over the defaults.
func NewFileLoader(path string) *Loader {
	return &Loader{
		localPath: path,
		explicit:  true,
		getenv:    os.Getenv,
	}
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// LocalPath returns the path of the working-directory (or explicit) config file.
func (l *Loader) LocalPath() string {
	return l.localPath
}

// GlobalPath returns the path of the global config file, or "" when unavailable.
func (l *Loader) GlobalPath() string {
	if l.explicit || l.globalConfDir == "" {
		return ""
	}
	return filepath.Join(l.globalConfDir, domain.ConfigFileName)
}

// Load returns the merged configuration.
// Merge order: defaults <- global <- local (later takes precedence).
func (l *Loader) Load() (*domain.Config, error) {
	cfg := domain.NewDefaultConfig()

	if path := l.GlobalPath(); path != "" {
		if err := l.applyFile(cfg, path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := l.applyFile(cfg, l.localPath); err != nil {
		if l.explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if cfg.GitHub.TokenEnv != "" {
		cfg.GitHub.Token = l.getenv(cfg.GitHub.TokenEnv)
	}
	cfg.Normalize()
	return cfg, nil
}

// applyFile decodes path over cfg. Keys absent from the file keep their current value.
func (l *Loader) applyFile(cfg *domain.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, path, err)
	}

	cfg.Warnings = append(cfg.Warnings, unknownKeyWarnings(raw)...)
	return nil
}

// unknownKeyWarnings collects warnings for sections and keys the config does not define.
func unknownKeyWarnings(raw map[string]any) []string {
	var warnings []string
	for key, value := range raw {
		section, isSection := value.(map[string]any)
		if !isSection {
			if !contains(knownKeys[""], key) {
				warnings = append(warnings, fmt.Sprintf("unknown key: %s", key))
			}
			continue
		}
		allowed, ok := knownKeys[key]
		if !ok || key == "" {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", key))
			continue
		}
		for k := range section {
			if !contains(allowed, k) {
				warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", key, k))
			}
		}
	}
	sort.Strings(warnings)
	return warnings
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

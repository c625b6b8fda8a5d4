package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Manager creates and renders configuration files.
type Manager struct {
	localPath string
}

// NewManager creates a Manager for the config file at localPath.
func NewManager(localPath string) *Manager {
	return &Manager{localPath: localPath}
}

// Path returns the managed config file path.
func (m *Manager) Path() string {
	return m.localPath
}

// Init writes the commented template. An existing file is kept unless force is set.
func (m *Manager) Init(force bool) error {
	if !force {
		if _, err := os.Stat(m.localPath); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrConfigExists, m.localPath)
		}
	}
	if err := os.MkdirAll(filepath.Dir(m.localPath), 0o750); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(m.localPath, []byte(domain.ConfigTemplate()), 0o600)
}

// Ensure Manager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*Manager)(nil)

// Render encodes cfg as TOML. Secrets and warnings are never rendered.
func (m *Manager) Render(cfg *domain.Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(data), nil
}

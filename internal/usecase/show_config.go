package usecase

import (
	"context"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// ShowConfigInput contains the input for the ShowConfig use case.
type ShowConfigInput struct{}

// ShowConfigOutput contains the effective configuration.
type ShowConfigOutput struct {
	Rendered string   // Effective configuration as TOML
	Warnings []string // Unknown keys found while loading
	Invalid  error    // Validation failure; nil when the loop can run
}

// ShowConfig renders the effective configuration.
type ShowConfig struct {
	configManager domain.ConfigManager
	config        *domain.Config
}

// NewShowConfig creates a new ShowConfig use case.
func NewShowConfig(configManager domain.ConfigManager, config *domain.Config) *ShowConfig {
	return &ShowConfig{
		configManager: configManager,
		config:        config,
	}
}

// Execute renders the configuration and reports validation problems.
func (uc *ShowConfig) Execute(_ context.Context, _ ShowConfigInput) (*ShowConfigOutput, error) {
	cfg := *uc.config
	rendered, err := uc.configManager.Render(&cfg)
	if err != nil {
		return nil, err
	}
	return &ShowConfigOutput{
		Rendered: rendered,
		Warnings: uc.config.Warnings,
		Invalid:  cfg.Validate(),
	}, nil
}

// Package runner runs quality-gate shell commands.
package runner

import (
	"context"
	"os/exec"
	"strings"

	"github.com/runoshun/ledgerloop/internal/domain"
)

// Client implements domain.GateRunner interface.
type Client struct{}

// NewClient creates a new gate runner client.
func NewClient() *Client {
	return &Client{}
}

// Ensure Client implements domain.GateRunner interface.
var _ domain.GateRunner = (*Client)(nil)

// Run executes commands in dir one after another through `sh -c`.
// Blank commands are skipped; the first failing command stops the run.
func (c *Client) Run(ctx context.Context, dir string, commands []string) domain.GateSummary {
	summary := domain.GateSummary{Success: true}
	for _, script := range commands {
		if strings.TrimSpace(script) == "" {
			continue
		}
		cmd := exec.CommandContext(ctx, "sh", "-c", script)
		cmd.Dir = dir

		out, err := cmd.CombinedOutput()
		summary.Results = append(summary.Results, domain.GateResult{
			Command: script,
			Output:  string(out),
			Success: err == nil,
		})
		if err != nil {
			summary.Success = false
			return summary
		}
	}
	return summary
}

package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/tui"
)

// newTUICommand creates the tui command for launching the dashboard.
func newTUICommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive dashboard",
		Long: `Show ledger progress, loop state and recent iterations.
The dashboard refreshes every loop.poll_interval_sec; press "o" to run one iteration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.QuietConsole()
			model := tui.New(tui.NewContainerSource(c), c.AppConfig.PollInterval())
			p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}
}

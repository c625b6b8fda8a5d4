package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// newResetCommand creates the reset command.
func newResetCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Replace the loop state with a fresh one",
		Long: `Replace state.json with a fresh state: counters, cooldowns, branch and
completed-hash history are cleared. The ledger is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.ResetStateUseCase().Execute(cmd.Context(), usecase.ResetStateInput{}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", c.Config.StatePath)
			return nil
		},
	}
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// errGatesFailed makes `gates` exit non-zero when a check fails.
var errGatesFailed = errors.New("quality gates failed")

// newGatesCommand creates the gates command.
func newGatesCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "gates [repo]",
		Short: "Run the configured build, test and lint commands",
		Long: `Run gates.build, gates.test and gates.lint in order, stopping at the first failure.

With a repository argument the commands run in <gates.repos_root>/<repo>,
otherwise in the current directory. Nothing runs unless gates.enabled is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in usecase.RunGatesInput
			if len(args) == 1 {
				in.Repo = args[0]
			}
			out, err := c.RunGatesUseCase().Execute(cmd.Context(), in)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(out.Summary.Results) == 0 {
				_, _ = fmt.Fprintln(w, "No gates ran (gates disabled or no commands configured).")
				return nil
			}
			for _, r := range out.Summary.Results {
				mark := okStyle.Render("PASS")
				if !r.Success {
					mark = failStyle.Render("FAIL")
				}
				_, _ = fmt.Fprintf(w, "%s %s\n", mark, r.Command)
				if !r.Success && strings.TrimSpace(r.Output) != "" {
					_, _ = fmt.Fprintln(w, strings.TrimRight(r.Output, "\n"))
				}
			}
			if !out.Summary.Success {
				return fmt.Errorf("%w in %s", errGatesFailed, out.Dir)
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// newPRsCommand creates the prs command.
func newPRsCommand(c *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "prs",
		Short: "List open pull requests of github.owner/github.repo",
		Long: `List up to 20 open pull requests on GitHub.

The token is read from the environment variable named by github.token_env.
Network failures are logged and produce an empty list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ListPRsUseCase().Execute(cmd.Context(), usecase.ListPRsInput{})
			if err != nil {
				return err
			}
			if done, err := encode(cmd.OutOrStdout(), format, out.PRs); done {
				return err
			}
			w := cmd.OutOrStdout()
			if len(out.PRs) == 0 {
				_, _ = fmt.Fprintf(w, "No open pull requests for %s/%s.\n", out.Owner, out.Repo)
				return nil
			}
			for _, pr := range out.PRs {
				_, _ = fmt.Fprintf(w, "#%-5d %s [%s]\n       %s\n", pr.Number, pr.Title, pr.HeadRef, pr.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")

	return cmd
}

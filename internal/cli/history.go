package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// newHistoryCommand creates the history command.
func newHistoryCommand(c *app.Container) *cobra.Command {
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent iterations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, err := c.ShowHistoryUseCase()
			if err != nil {
				return err
			}
			out, err := uc.Execute(cmd.Context(), usecase.ShowHistoryInput{Limit: limit})
			if err != nil {
				return err
			}
			if done, err := encode(cmd.OutOrStdout(), format, out.Records); done {
				return err
			}
			printHistory(cmd.OutOrStdout(), out.Records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", usecase.DefaultHistoryLimit, "Number of iterations to show (negative for all)")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")

	return cmd
}

func printHistory(w io.Writer, records []domain.IterationRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No iterations recorded.")
		return
	}
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-19s  %5s  %-11s  %-16s  %s", "STARTED", "BATCH", "OUTCOME", "REPO", "RESULT")))
	for _, r := range records {
		result := ""
		if r.Outcome == domain.OutcomeWorked {
			result = fmt.Sprintf("%d ok / %d failed of %d", r.Successes, r.Failures, r.BatchSize)
		}
		if r.PublishURL != "" {
			result += " " + r.PublishURL
		}
		_, _ = fmt.Fprintf(w, "%-19s  %5d  %-11s  %-16s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Batch, r.Outcome, orDash(r.Repo), result)
	}
}

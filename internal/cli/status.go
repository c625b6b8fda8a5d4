package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// newStatusCommand creates the status command.
func newStatusCommand(c *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show loop state and ledger progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowStatusUseCase().Execute(cmd.Context(), usecase.ShowStatusInput{})
			if err != nil {
				return err
			}
			if done, err := encode(cmd.OutOrStdout(), format, out); done {
				return err
			}
			printStatus(cmd.OutOrStdout(), out, time.Now())
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")

	return cmd
}

func printStatus(w io.Writer, out *usecase.ShowStatusOutput, now time.Time) {
	_, _ = fmt.Fprintln(w, headerStyle.Render("Loop"))
	printField(w, "Batches run", out.BatchCounter)
	printField(w, "Batch size", out.ActiveBatch)
	printField(w, "Toward publish", fmt.Sprintf("%d/%d", out.SuccessModulo, out.PublishEvery))
	printField(w, "Clean streak", out.SuccessGroupStreak)
	printField(w, "Failure streak", out.FailureGroupStreak)
	printField(w, "Last repo", orDash(out.LastRepo))
	printField(w, "Last branch", orDash(out.LastBranch))
	printField(w, "Completed hashes", out.Processed)

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Ledger %s (%d/%d done)", out.LedgerPath, out.Done, out.Total)))
	if len(out.Repos) == 0 {
		_, _ = fmt.Fprintln(w, "  no sections")
	}
	for _, r := range out.Repos {
		style := warnStyle
		if r.Done == r.Total {
			style = okStyle
		}
		printField(w, "  "+r.Repo, style.Render(fmt.Sprintf("%d/%d", r.Done, r.Total)))
	}

	if len(out.Paused) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintln(w, headerStyle.Render("Paused"))
		for _, p := range out.Paused {
			left := p.Until.Sub(now).Round(time.Minute)
			if left < 0 {
				left = 0
			}
			printField(w, "  "+p.Repo, failStyle.Render(fmt.Sprintf("until %s (%s)", p.Until.Local().Format("15:04"), left)))
		}
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

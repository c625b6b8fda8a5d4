package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// newRunCommand creates the run command.
func newRunCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the loop until the deadline, a halt or a signal",
		Long: `Run iterations until loop.global_timeout_sec elapses.

Idle iterations sleep loop.poll_interval_sec and wake early when the ledger changes.
SIGINT and SIGTERM stop the loop at the next sleep point; a running iteration
always finishes and releases the state lock.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd, c, usecase.RunLoopInput{})
		},
	}
}

// newOnceCommand creates the once command.
func newOnceCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single iteration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoop(cmd, c, usecase.RunLoopInput{MaxIterations: 1})
		},
	}
}

func runLoop(cmd *cobra.Command, c *app.Container, in usecase.RunLoopInput) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := executeLoop(ctx, c, in)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stopped after %d iteration(s): %s\n", out.Iterations, out.Reason)
	return nil
}

// executeLoop runs the loop with sleeps woken by ledger edits.
func executeLoop(ctx context.Context, c *app.Container, in usecase.RunLoopInput) (*usecase.RunLoopOutput, error) {
	var wake <-chan struct{}
	if watcher, err := c.WatchLedger(); err != nil {
		c.Logger.Warn("ledger", fmt.Sprintf("not watching ledger: %v", err))
	} else {
		defer func() { _ = watcher.Close() }()
		wake = watcher.Changes()
	}

	uc, err := c.RunLoopUseCase(wake)
	if err != nil {
		return nil, err
	}
	return uc.Execute(ctx, in)
}

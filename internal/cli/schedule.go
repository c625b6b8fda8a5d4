package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/domain"
	"github.com/runoshun/ledgerloop/internal/usecase"
)

// cronParser accepts standard five-field expressions.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule validates a five-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty expression (set schedule.cron or --cron)", domain.ErrInvalidCron)
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", domain.ErrInvalidCron, expr, err)
	}
	return sched, nil
}

// cronLogger routes cron's own messages to the domain logger.
type cronLogger struct {
	logger domain.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("schedule", formatKV(msg, keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("schedule", fmt.Sprintf("%s: %v", formatKV(msg, keysAndValues), err))
}

func formatKV(msg string, kv []any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

// newScheduleCommand creates the schedule command.
func newScheduleCommand(c *app.Container) *cobra.Command {
	var expr string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Start a loop run on a cron schedule",
		Long: `Stay in the foreground and start one loop run (same as "run") every time the
cron expression fires. A run still in progress when the next one is due is skipped.
A run that ends with an error stops the scheduler and the command fails with it.`,
		Example: `  ledgerloop schedule --cron "0 22 * * *"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if expr == "" {
				expr = c.AppConfig.Schedule.Cron
			}
			sched, err := ParseSchedule(expr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				mu    sync.Mutex
				fatal error
			)
			logger := cronLogger{logger: c.Logger}
			runner := cron.New(
				cron.WithParser(cronParser),
				cron.WithLogger(logger),
				cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
			)
			runner.Schedule(sched, cron.FuncJob(func() {
				if err := scheduledRun(ctx, c); err != nil {
					mu.Lock()
					fatal = err
					mu.Unlock()
					stop()
				}
			}))

			runner.Start()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Scheduled %q; next run %s\n", expr, sched.Next(c.Clock.Now()).Format("2006-01-02 15:04"))
			<-ctx.Done()
			<-runner.Stop().Done()
			mu.Lock()
			defer mu.Unlock()
			return fatal
		},
	}

	cmd.Flags().StringVar(&expr, "cron", "", "Cron expression (default: schedule.cron)")

	return cmd
}

// scheduledRun runs the loop once and returns the error that ended it.
func scheduledRun(ctx context.Context, c *app.Container) error {
	if ctx.Err() != nil {
		return nil
	}
	c.Logger.Info("schedule", "starting scheduled run")
	out, err := executeLoop(ctx, c, usecase.RunLoopInput{})
	if err != nil {
		c.Logger.Error("schedule", fmt.Sprintf("scheduled run failed: %v; stopping schedule", err))
		return fmt.Errorf("scheduled run: %w", err)
	}
	c.Logger.Info("schedule", fmt.Sprintf("scheduled run stopped after %d iteration(s): %s", out.Iterations, out.Reason))
	return nil
}

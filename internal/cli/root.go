// Package cli provides the command-line interface for ledgerloop.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runoshun/ledgerloop/internal/app"
)

// Command group IDs.
const (
	groupLoop    = "loop"
	groupInspect = "inspect"
	groupSetup   = "setup"
)

// Global flag names.
const (
	flagConfig   = "config"
	flagLogLevel = "log-level"
)

// GlobalFlags are the persistent flags the container is built from.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
}

// ParseGlobalFlags extracts the persistent flags from args before the container exists.
// Unknown flags and positional arguments are ignored; cobra validates them later.
func ParseGlobalFlags(args []string) GlobalFlags {
	var g GlobalFlags
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	addGlobalFlags(fs, &g)
	_ = fs.Parse(args)
	return g
}

func addGlobalFlags(fs *pflag.FlagSet, g *GlobalFlags) {
	fs.StringVar(&g.ConfigPath, flagConfig, "", "Config file (default: .ledgerloop/config.toml merged over the global config)")
	fs.StringVar(&g.LogLevel, flagLogLevel, "", "Log level: debug, info, warn, error (overrides log.level)")
}

// NewRootCommand creates the root command for ledgerloop.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "ledgerloop",
		Short: "Ledger-driven batch orchestration loop",
		Long: `ledgerloop works through a markdown task ledger in small batches.

Each iteration takes the next pending tasks, hands them to an execution agent,
ticks off what succeeded, opens a pull request every few successes and asks the
agent for a fresh checklist when a repository runs out of work.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
	}

	// Registered for help output; the values were already consumed by ParseGlobalFlags.
	var g GlobalFlags
	addGlobalFlags(root.PersistentFlags(), &g)

	root.AddGroup(
		&cobra.Group{ID: groupLoop, Title: "Loop Commands:"},
		&cobra.Group{ID: groupInspect, Title: "Inspection Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	runCmd := newRunCommand(c)
	runCmd.GroupID = groupLoop

	onceCmd := newOnceCommand(c)
	onceCmd.GroupID = groupLoop

	scheduleCmd := newScheduleCommand(c)
	scheduleCmd.GroupID = groupLoop

	resetCmd := newResetCommand(c)
	resetCmd.GroupID = groupLoop

	statusCmd := newStatusCommand(c)
	statusCmd.GroupID = groupInspect

	historyCmd := newHistoryCommand(c)
	historyCmd.GroupID = groupInspect

	prsCmd := newPRsCommand(c)
	prsCmd.GroupID = groupInspect

	gatesCmd := newGatesCommand(c)
	gatesCmd.GroupID = groupInspect

	tuiCmd := newTUICommand(c)
	tuiCmd.GroupID = groupInspect

	configCmd := newConfigCommand(c)
	configCmd.GroupID = groupSetup

	root.AddCommand(
		runCmd,
		onceCmd,
		scheduleCmd,
		resetCmd,
		statusCmd,
		historyCmd,
		prsCmd,
		gatesCmd,
		tuiCmd,
		configCmd,
	)

	return root
}

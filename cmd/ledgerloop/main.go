// Package main is the entry point for the ledgerloop CLI.
package main

import (
	"fmt"
	"os"

	"github.com/runoshun/ledgerloop/internal/app"
	"github.com/runoshun/ledgerloop/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	flags := cli.ParseGlobalFlags(args)
	container, err := app.New(app.Options{
		WorkDir:    cwd,
		ConfigPath: flags.ConfigPath,
		LogLevel:   flags.LogLevel,
		Console:    os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	rootCmd := cli.NewRootCommand(container, version)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

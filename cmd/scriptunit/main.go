package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"scriptunit/internal/cli"
	"scriptunit/internal/cli/commands"
	"scriptunit/internal/config"
	"scriptunit/internal/logging"
)

var version = "dev"

func main() {
	logger, level, err := logging.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create root command
	rootCmd := &cobra.Command{
		Use:           "scriptunit",
		Short:         "Unit test runner for Go scripts",
		Long:          `Discover annotated test suites in Go script files, run them in an embedded interpreter and report the results.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetVerbose(level, flags.Verbose)

			loaded, err := config.Load(flags.ToConfigFlags())
			if err != nil {
				return err
			}
			*cfg = *loaded
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Stream every test event and show debug logs")
	rootCmd.PersistentFlags().StringVarP(&flags.ProjectPath, "project", "p", config.DefaultProjectPath, "Project root holding .env and scriptunit.yaml")
	rootCmd.PersistentFlags().StringVarP(&flags.DefinitionPath, "definition", "d", "", "Suite definition file (defaults to scriptunit.yaml in the project)")

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg, logger)

	// Register all commands
	cmds.Register(rootCmd, &flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, commands.ErrTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scriptunit/internal/discovery"
	"scriptunit/internal/execution"
)

// RunCommand handles the run command
type RunCommand struct {
	session *session
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(s *session) *RunCommand {
	return &RunCommand{session: s}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := rc.session.config

	// Discover tests
	tests, err := rc.session.discover()
	if err != nil {
		return err
	}

	if cfg.Flags.OnlyFailed {
		previous, err := rc.session.storage().Load()
		if err != nil {
			return fmt.Errorf("no previous run to take failures from: %w", err)
		}
		tests = discovery.NewFilter().FilterFailed(tests, previous.FailedFiles)
	}

	tests, err = execution.Shard(execution.NewRoundRobinScheduler(), tests, cfg.Flags.ShardIndex, cfg.Flags.ShardCount)
	if err != nil {
		return err
	}

	if len(tests) == 0 {
		color.Yellow("No tests to execute")
		return nil
	}

	output, _, runErr := rc.session.execute(cmd.Context(), tests)
	if output == nil {
		return runErr
	}

	rc.session.formatter().PrintSummary(output)
	if runErr != nil {
		return runErr
	}

	if output.Meta.FailedTestFiles == 0 {
		return nil
	}
	if cfg.Flags.OpenFailures {
		if err := rc.session.viewer(rc.session.storage()).View(output); err != nil {
			return err
		}
	}
	return ErrTestsFailed
}

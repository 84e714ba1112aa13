package commands

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scriptunit/internal/discovery"
	"scriptunit/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	session *session
}

// NewListCommand creates a new ListCommand
func NewListCommand(s *session) *ListCommand {
	return &ListCommand{session: s}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	tests, err := lc.session.discover()
	if err != nil {
		return err
	}

	if len(tests) == 0 {
		color.Yellow("No tests found")
		return nil
	}

	// Mark files that failed last time, when there is a last time
	failed := map[string]struct{}{}
	if previous, err := lc.session.storage().Load(); err == nil {
		for _, path := range previous.FailedFiles {
			failed[filepath.Clean(path)] = struct{}{}
		}
	}

	var lister ui.SuiteLister
	if lc.session.config.Flags.TestCases {
		lister = discovery.NewLister(lc.session.host(), lc.session.logger)
	}

	return lc.session.formatter().PrintTestList(cmd.Context(), tests, lister, failed)
}

package commands

import (
	"github.com/spf13/cobra"
)

// FailuresCommand handles the failures command
type FailuresCommand struct {
	session *session
}

// NewFailuresCommand creates a new FailuresCommand
func NewFailuresCommand(s *session) *FailuresCommand {
	return &FailuresCommand{session: s}
}

// Execute runs the command
func (fc *FailuresCommand) Execute(cmd *cobra.Command, args []string) error {
	st := fc.session.storage()
	results, err := st.Load()
	if err != nil {
		return err
	}

	return fc.session.viewer(st).View(results)
}

package commands

import (
	"github.com/spf13/cobra"

	"scriptunit/internal/history"
)

// HistoryCommand handles the history command
type HistoryCommand struct {
	session *session
}

// NewHistoryCommand creates a new HistoryCommand
func NewHistoryCommand(s *session) *HistoryCommand {
	return &HistoryCommand{session: s}
}

// Execute runs the command
func (hc *HistoryCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := hc.session.config

	dsn := cfg.HistoryDSN
	if dsn == "" {
		dsn = history.DSNFromEnv()
	}

	store, err := history.Open(cmd.Context(), dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), cfg.Flags.HistoryLimit)
	if err != nil {
		return err
	}

	hc.session.formatter().PrintHistory(runs)
	return nil
}

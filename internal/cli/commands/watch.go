package commands

import (
	"context"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scriptunit/internal/config"
	"scriptunit/internal/discovery"
	"scriptunit/internal/watch"
)

// WatchCommand handles the watch command
type WatchCommand struct {
	session *session
}

// NewWatchCommand creates a new WatchCommand
func NewWatchCommand(s *session) *WatchCommand {
	return &WatchCommand{session: s}
}

// Execute watches the test path until interrupted
func (wc *WatchCommand) Execute(cmd *cobra.Command, args []string) error {
	cfg := wc.session.config

	watcher, err := watch.New(cfg.ScriptSuffix, cfg.PathsToIgnore, config.DefaultWatchDebounce, wc.rerun, wc.session.logger)
	if err != nil {
		return err
	}

	root := cfg.GetTestPath()
	if err := watcher.Add(root); err != nil {
		return err
	}

	color.Cyan("Watching %s for changes (Ctrl+C to stop)", root)
	return watcher.Run(cmd.Context())
}

// rerun executes the changed files that pass the name filter
func (wc *WatchCommand) rerun(ctx context.Context, changed []string) {
	files := discovery.NewFilter().FilterByName(changed, wc.session.config.Flags.NameFilter)
	if len(files) == 0 {
		return
	}

	output, _, err := wc.session.execute(ctx, files)
	if err != nil && ctx.Err() == nil {
		wc.session.logger.Error("watch run failed", zap.Error(err))
		return
	}
	if output != nil {
		wc.session.formatter().PrintSummary(output)
	}
}

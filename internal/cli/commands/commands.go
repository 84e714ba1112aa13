package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scriptunit/internal/cli"
	"scriptunit/internal/config"
	"scriptunit/internal/discovery"
	"scriptunit/internal/domain"
	"scriptunit/internal/execution"
	"scriptunit/internal/history"
	"scriptunit/internal/reporting"
	"scriptunit/internal/script/gohost"
	"scriptunit/internal/storage"
	"scriptunit/internal/ui"
)

// ErrTestsFailed is returned by commands that ran tests and saw failures
var ErrTestsFailed = errors.New("tests failed")

// Commands holds all CLI commands
type Commands struct {
	Run      *RunCommand
	List     *ListCommand
	Failures *FailuresCommand
	History  *HistoryCommand
	Watch    *WatchCommand
}

// NewCommands creates all commands. cfg is filled in once flags are parsed,
// so every command builds its dependencies when it executes.
func NewCommands(cfg *config.Config, logger *zap.Logger) *Commands {
	s := &session{config: cfg, logger: logger}

	return &Commands{
		Run:      NewRunCommand(s),
		List:     NewListCommand(s),
		Failures: NewFailuresCommand(s),
		History:  NewHistoryCommand(s),
		Watch:    NewWatchCommand(s),
	}
}

// Register registers all commands with cobra
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags) {
	// Run command
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run script unit tests",
		Long:  "Discover script test files, execute their suites and report the results",
		RunE:  c.Run.Execute,
	}
	runCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder (or file) where test detection should start")
	runCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards, e.g., '*calc*')")
	runCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop after the first test file with failures")
	runCmd.Flags().BoolVar(&flags.OnlyFailed, "failed", false, "Run only test files that failed in the last run")
	runCmd.Flags().BoolVar(&flags.OpenFailures, "open-failures", false, "Open the failures viewer when the run finishes with failures")
	runCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Default timeout for tests without a @timeout annotation")
	runCmd.Flags().IntVar(&flags.Shard, "shard", 0, "Run only this shard of the test files (1-based)")
	runCmd.Flags().IntVar(&flags.Shards, "shards", 1, "Number of shards the test files are split into")
	runCmd.Flags().StringVar(&flags.JUnitPath, "junit", "", "Write a JUnit XML report to this path")
	runCmd.Flags().StringVar(&flags.HistoryDSN, "history-dsn", "", "Record the run in this MySQL database")
	rootCmd.AddCommand(runCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tests",
		Long:  "Scan and list test files, suites and test cases without executing them",
		RunE:  c.List.Execute,
	}
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter test files by name pattern (supports wildcards, e.g., '*calc*')")
	listCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder (or file) where test detection should start")
	listCmd.Flags().BoolVarP(&flags.TestCases, "test-cases", "c", false, "List suites and test cases instead of test files")
	rootCmd.AddCommand(listCmd)

	// Failures command
	failuresCmd := &cobra.Command{
		Use:   "failures",
		Short: "View test failures interactively",
		Long:  "Display test failures from the last test run in an interactive viewer",
		RunE:  c.Failures.Execute,
	}
	rootCmd.AddCommand(failuresCmd)

	// History command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded test runs",
		Long:  "List the most recent runs recorded in the MySQL history database",
		RunE:  c.History.Execute,
	}
	historyCmd.Flags().StringVar(&flags.HistoryDSN, "history-dsn", "", "MySQL DSN of the history database (defaults to the DB_* variables)")
	historyCmd.Flags().IntVarP(&flags.HistoryLimit, "limit", "n", config.DefaultHistoryLimit, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)

	// Watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Rerun tests when script files change",
		Long:  "Watch the test path and run every changed test file again",
		RunE:  c.Watch.Execute,
	}
	watchCmd.Flags().StringVarP(&flags.TestPath, "test-path", "t", "", "Path to the folder where test detection should start")
	watchCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Only rerun test files matching this name pattern")
	watchCmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Default timeout for tests without a @timeout annotation")
	rootCmd.AddCommand(watchCmd)
}

// session builds the dependencies of a command from the loaded config
type session struct {
	config *config.Config
	logger *zap.Logger
}

func (s *session) scanner() *discovery.Scanner {
	return discovery.NewScanner(s.config.ScriptSuffix, s.config.PathsToIgnore)
}

func (s *session) host() *gohost.Host {
	return gohost.New(gohost.Options{Variables: s.config.Variables}, s.logger)
}

func (s *session) storage() storage.Storage {
	return storage.NewJSONStorage(s.config)
}

func (s *session) viewer(st storage.Storage) ui.Viewer {
	return ui.NewFailureViewer(st)
}

func (s *session) formatter() *ui.Formatter {
	return ui.NewFormatter(s.config)
}

// discover lists the test files under the test path that match the name filter
func (s *session) discover() ([]string, error) {
	files, err := s.scanner().Scan(s.config.GetTestPath())
	if err != nil {
		return nil, err
	}
	return discovery.NewFilter().FilterByName(files, s.config.Flags.NameFilter), nil
}

// pool wires host, executor and runner. Verbose runs stream every event to the
// console; otherwise a progress bar is shown.
func (s *session) pool(fileCount int) *execution.Pool {
	executor := execution.NewExecutor(execution.Options{
		DefaultTimeout:  s.config.DefaultTimeout,
		PromoteFailures: s.config.PromoteFailures,
	}, s.logger)
	runner := execution.NewRunner(s.host(), executor, s.logger)
	pool := execution.NewPool(runner, s.logger)

	if s.config.Flags.Verbose {
		pool.SetSink(reporting.NewConsole(os.Stdout, true))
	} else {
		pool.SetProgress(ui.NewProgressBar(fileCount))
	}
	return pool
}

// execute runs files and saves the results. Reports and history are written
// even when ctx was cancelled part way; the context error is returned with the
// partial output.
func (s *session) execute(ctx context.Context, files []string) (*domain.TestResultsOutput, []*domain.FileResult, error) {
	started := time.Now()

	results, duration, runErr := s.pool(len(files)).Execute(ctx, files, s.config.Flags.FailFast)
	if runErr != nil && ctx.Err() == nil {
		return nil, nil, runErr
	}

	output, err := s.storage().Save(results, duration)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save test results: %w", err)
	}

	if path := s.config.GetJUnitPath(); path != "" {
		report := &reporting.JUnitReport{
			Title:      s.config.SuiteTitle(),
			Properties: s.config.Variables,
			Started:    started,
		}
		if err := report.Write(path, results); err != nil {
			return nil, nil, err
		}
	}

	if s.config.HistoryDSN != "" {
		s.record(output)
	}

	return output, results, runErr
}

// record stores the run in the history database. A broken history database
// must not fail the run, so errors are only logged.
func (s *session) record(output *domain.TestResultsOutput) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := history.Open(ctx, s.config.HistoryDSN)
	if err != nil {
		s.logger.Warn("run history unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.Record(ctx, output); err != nil {
		s.logger.Warn("failed to record run history", zap.Error(err))
	}
}

package execution

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"scriptunit/internal/discovery"
	"scriptunit/internal/domain"
	"scriptunit/internal/reporting"
	"scriptunit/internal/script"
)

// Runner executes the suites of a single script file
type Runner struct {
	loader     script.Loader
	candidates *discovery.Candidates
	executor   *Executor
	logger     *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(loader script.Loader, executor *Executor, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		loader:     loader,
		candidates: discovery.NewCandidates(logger),
		executor:   executor,
		logger:     logger,
	}
}

// Run loads testPath, finds its suites and executes them. Events go to sink as
// they happen; the returned result holds everything that was reported.
func (r *Runner) Run(ctx context.Context, testPath string, sink reporting.Sink) *domain.FileResult {
	recorder := reporting.NewRecorder()
	recorder.BeginFile(testPath)

	err := r.run(ctx, testPath, reporting.NewMulti(recorder, sink))
	if err != nil {
		r.logger.Warn("script file aborted", zap.String("file", testPath), zap.Error(err))
	}

	return recorder.EndFile(err)
}

func (r *Runner) run(ctx context.Context, testPath string, sink reporting.Sink) error {
	env, err := r.loader.Load(ctx, testPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", testPath, err)
	}

	suites, err := r.candidates.Scan(env)
	if err != nil {
		return fmt.Errorf("scan %s: %w", testPath, err)
	}
	r.logger.Debug("suites discovered", zap.String("file", testPath), zap.Int("suites", len(suites)))

	executor := r.executor
	if resolver, ok := env.(script.LocationResolver); ok {
		executor = executor.WithLocations(resolver)
	}

	return executor.Run(ctx, suites, sink)
}

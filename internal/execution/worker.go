package execution

import (
	"context"
	"time"

	"go.uber.org/zap"

	"scriptunit/internal/domain"
	"scriptunit/internal/reporting"
)

// Progress is notified after every finished script file
type Progress interface {
	Update(completedFiles int, counts domain.Counts)
	Finish()
}

// Pool runs script files one after another, sharing one sink and progress view
type Pool struct {
	runner   *Runner
	sink     reporting.Sink
	progress Progress
	logger   *zap.Logger
}

// NewPool creates a new Pool
func NewPool(runner *Runner, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{runner: runner, sink: reporting.Nop{}, logger: logger}
}

// SetProgress sets the progress view for the pool
func (p *Pool) SetProgress(progress Progress) {
	p.progress = progress
}

// SetSink sets the sink receiving live events
func (p *Pool) SetSink(sink reporting.Sink) {
	if sink == nil {
		sink = reporting.Nop{}
	}
	p.sink = sink
}

// Execute runs every file. With failFast it stops after the first file that
// did not succeed. Cancelling ctx stops the run before the next file and
// returns the results gathered so far with the context error.
func (p *Pool) Execute(ctx context.Context, files []string, failFast bool) ([]*domain.FileResult, time.Duration, error) {
	if len(files) == 0 {
		return nil, 0, nil
	}

	startTime := time.Now()
	defer func() {
		if p.progress != nil {
			p.progress.Finish()
		}
	}()

	var results []*domain.FileResult
	var counts domain.Counts

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return results, time.Since(startTime), err
		}

		observer, observes := p.sink.(reporting.FileObserver)
		if observes {
			observer.FileBegin(file)
		}
		result := p.runner.Run(ctx, file, p.sink)
		if observes {
			observer.FileEnd(result)
		}
		results = append(results, result)

		counts.Merge(result.Counts())

		if p.progress != nil {
			p.progress.Update(i+1, counts)
		}

		if failFast && !result.Success() {
			p.logger.Info("stopping after first failing file", zap.String("file", file))
			break
		}
	}

	return results, time.Since(startTime), nil
}

package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"scriptunit/internal/domain"
	"scriptunit/internal/reporting"
	"scriptunit/internal/script"
)

// Options tune how tests are executed.
type Options struct {
	// DefaultTimeout applies to tests without a @timeout annotation; 0 disables it.
	DefaultTimeout time.Duration
	// PromoteFailures reports assertion failures as errors.
	PromoteFailures bool
	// Locations optionally resolves where a test was defined.
	Locations script.LocationResolver
}

// Executor drives test suites through their lifecycle and reports every
// outcome to a sink.
type Executor struct {
	opts   Options
	logger *zap.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(opts Options, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{opts: opts, logger: logger}
}

// WithLocations returns a copy of the executor using resolver for test locations.
func (e *Executor) WithLocations(resolver script.LocationResolver) *Executor {
	opts := e.opts
	opts.Locations = resolver
	return &Executor{opts: opts, logger: e.logger}
}

// Run executes suites one after the other. A class hook failure stops the run
// and is returned.
func (e *Executor) Run(ctx context.Context, suites []*domain.TestSuite, sink reporting.Sink) error {
	for _, suite := range suites {
		if err := e.RunSuite(ctx, suite, sink); err != nil {
			return err
		}
	}
	return nil
}

// RunSuite executes the class setup, every test and the class teardown of a
// suite. Class hooks only run when the suite has tests.
func (e *Executor) RunSuite(ctx context.Context, suite *domain.TestSuite, sink reporting.Sink) error {
	e.logger.Debug("running suite", zap.String("suite", suite.Name), zap.Int("tests", len(suite.Tests)))

	sink.SuiteBegin(suite.Name, suite.Description)
	defer sink.SuiteEnd()

	if len(suite.Tests) == 0 {
		return nil
	}

	if suite.BeforeClass != nil {
		if err := e.call(ctx, suite.BeforeClass.Callable, 0); err != nil {
			return fmt.Errorf("suite %s: before class %s: %w", suite.Name, suite.BeforeClass.Name, err)
		}
	}

	for _, test := range suite.Tests {
		e.runTest(ctx, suite, test, sink)
	}

	if suite.AfterClass != nil {
		if err := e.call(ctx, suite.AfterClass.Callable, 0); err != nil {
			return fmt.Errorf("suite %s: after class %s: %w", suite.Name, suite.AfterClass.Name, err)
		}
	}

	return nil
}

func (e *Executor) runTest(ctx context.Context, suite *domain.TestSuite, test *domain.TestMember, sink reporting.Sink) {
	sink.TestBegin(test.Name, test.Description(), e.locate(test))
	defer sink.TestEnd()

	if suite.Ignored() {
		sink.TestIgnored(suite.IgnoreReason)
		return
	}
	if reason, ok := test.Annotations.Ignore(); ok {
		sink.TestIgnored(reason)
		return
	}

	if suite.Before != nil {
		if err := e.call(ctx, suite.Before.Callable, 0); err != nil {
			sink.TestErrored("Test setup error: "+script.MessageOf(err), script.TraceOf(err))
			return
		}
	}

	if suite.After != nil {
		defer func() {
			if err := e.call(ctx, suite.After.Callable, 0); err != nil {
				sink.TestErrored("Test teardown error: "+script.MessageOf(err), script.TraceOf(err))
			}
		}()
	}

	e.invoke(ctx, test, sink)
}

// invoke calls the test body and classifies what came back.
func (e *Executor) invoke(ctx context.Context, test *domain.TestMember, sink reporting.Sink) {
	timeout, err := test.Annotations.Timeout()
	if err != nil {
		sink.TestErrored(err.Error(), "")
		return
	}
	if timeout == 0 {
		timeout = e.opts.DefaultTimeout
	}

	err = e.call(ctx, test.Callable, timeout)
	expected, expects := test.Annotations.Expect()

	var assertion *script.AssertionError
	var ignored *script.IgnoredError

	switch {
	case err == nil:
		if expects {
			e.fail(sink, "Expected exception not thrown: "+expected, "")
		}
	case errors.Is(err, script.ErrTimeout):
		e.fail(sink, fmt.Sprintf("Test timed out after %s", timeout), "")
	case errors.As(err, &assertion):
		e.fail(sink, assertion.Message, assertion.Trace)
	case errors.As(err, &ignored):
		sink.TestIgnored(ignored.Reason)
	case expects && matchesKind(err, expected):
		e.logger.Debug("expected exception thrown", zap.String("test", test.Name), zap.String("kind", expected))
	default:
		sink.TestErrored(script.MessageOf(err), script.TraceOf(err))
	}
}

func (e *Executor) fail(sink reporting.Sink, message, trace string) {
	if e.opts.PromoteFailures {
		sink.TestErrored(message, trace)
		return
	}
	sink.TestFailed(message, trace)
}

// call invokes c, bounded by timeout when it is positive. Cancelling ctx does
// not abort a running invocation; runs are only stopped between files.
func (e *Executor) call(ctx context.Context, c script.Callable, timeout time.Duration) error {
	ctx = context.WithoutCancel(ctx)
	if timeout <= 0 {
		return script.Protect(func() error { return c.Call(ctx) })
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- script.Protect(func() error { return c.Call(ctx) })
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w after %s", script.ErrTimeout, timeout)
	}
}

// locate asks the optional resolver where the test lives. Any failure here is
// dropped.
func (e *Executor) locate(test *domain.TestMember) (location *script.Location) {
	if e.opts.Locations == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("location lookup panicked", zap.String("test", test.Name), zap.Any("panic", r))
			location = nil
		}
	}()

	location, err := e.opts.Locations.Locate(test.Callable)
	if err != nil {
		e.logger.Debug("location lookup failed", zap.String("test", test.Name), zap.Error(err))
		return nil
	}
	return location
}

func matchesKind(err error, expected string) bool {
	var thrown *script.ThrownError
	if errors.As(err, &thrown) {
		return thrown.Kind == expected
	}
	return script.KindOf(err) == expected
}

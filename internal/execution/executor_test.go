package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"scriptunit/internal/discovery"
	"scriptunit/internal/domain"
	"scriptunit/internal/reporting"
	"scriptunit/internal/script"
)

// eventLog is a sink that records every event as a short line.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

func (l *eventLog) SuiteBegin(name, description string) { l.add("suiteBegin %s", name) }
func (l *eventLog) TestBegin(name, description string, location *script.Location) {
	l.add("testBegin %s", name)
}
func (l *eventLog) TestFailed(message, trace string)  { l.add("failed %s", message) }
func (l *eventLog) TestErrored(message, trace string) { l.add("errored %s", message) }
func (l *eventLog) TestIgnored(reason string)         { l.add("ignored %s", reason) }
func (l *eventLog) TestEnd()                          { l.add("testEnd") }
func (l *eventLog) SuiteEnd()                         { l.add("suiteEnd") }

// calls records hook and test invocations in order.
type calls struct {
	mu    sync.Mutex
	names []string
}

func (c *calls) fn(name string, body func() error) func() error {
	return func() error {
		c.mu.Lock()
		c.names = append(c.names, name)
		c.mu.Unlock()
		if body == nil {
			return nil
		}
		return body()
	}
}

func scan(t *testing.T, env *script.Env) []*domain.TestSuite {
	t.Helper()
	suites, err := discovery.NewCandidates(nil).Scan(env)
	require.NoError(t, err)
	return suites
}

func fail(message string) func() error {
	return func() error { panic(&script.AssertionError{Message: message}) }
}

func TestExecutor_LifecycleOrder(t *testing.T) {
	c := &calls{}
	env := script.NewEnv().Bind("Lifecycle", script.NewSuite().
		Set("init", script.NewFunc("'@beforeClass';", c.fn("beforeClass", nil))).
		Set("setUp", script.NewFunc("'@before';", c.fn("before", nil))).
		Set("testOne", script.NewFunc("", c.fn("testOne", nil))).
		Set("tearDown", script.NewFunc("'@after';", c.fn("after", nil))).
		Set("testTwo", script.NewFunc("", c.fn("testTwo", nil))).
		Set("finish", script.NewFunc("'@afterClass';", c.fn("afterClass", nil))))

	log := &eventLog{}
	err := NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), log)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"beforeClass",
		"before", "testOne", "after",
		"before", "testTwo", "after",
		"afterClass",
	}, c.names)
	assert.Equal(t, []string{
		"suiteBegin Lifecycle",
		"testBegin testOne", "testEnd",
		"testBegin testTwo", "testEnd",
		"suiteEnd",
	}, log.events)
}

func TestExecutor_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		body     func() error
		options  Options
		expected []string
	}{
		{
			name:     "passing test",
			body:     func() error { return nil },
			expected: []string{"testBegin testCase", "testEnd"},
		},
		{
			name:     "assertion failure",
			body:     fail("Value is false"),
			expected: []string{"testBegin testCase", "failed Value is false", "testEnd"},
		},
		{
			name:     "assertion failure promoted",
			body:     fail("Value is false"),
			options:  Options{PromoteFailures: true},
			expected: []string{"testBegin testCase", "errored Value is false", "testEnd"},
		},
		{
			name:     "unexpected error",
			body:     func() error { return errors.New("boom") },
			expected: []string{"testBegin testCase", "errored boom", "testEnd"},
		},
		{
			name:     "panic value",
			body:     func() error { panic("kaboom") },
			expected: []string{"testBegin testCase", "errored kaboom", "testEnd"},
		},
		{
			name:     "expected kind thrown",
			source:   "'@expect(java.io.IOException)';",
			body:     func() error { return script.Throw("java.io.IOException", "disk") },
			expected: []string{"testBegin testCase", "testEnd"},
		},
		{
			name:     "expected kind with surrounding spaces",
			source:   "'@expect( custom.Kind )';",
			body:     func() error { return script.Throw("custom.Kind", "x") },
			expected: []string{"testBegin testCase", "testEnd"},
		},
		{
			name:     "different kind thrown",
			source:   "'@expect(java.io.IOException)';",
			body:     func() error { return script.Throw("java.lang.IllegalStateException", "state") },
			expected: []string{"testBegin testCase", "errored state", "testEnd"},
		},
		{
			name:     "expected kind not thrown",
			source:   "'@expect(java.io.IOException)';",
			body:     func() error { return nil },
			expected: []string{"testBegin testCase", "failed Expected exception not thrown: java.io.IOException", "testEnd"},
		},
		{
			name:     "assertion failure beats expected exception",
			source:   "'@expect(custom.Kind)';",
			body:     fail("nope"),
			expected: []string{"testBegin testCase", "failed nope", "testEnd"},
		},
		{
			name:     "expected go error type",
			source:   "'@expect(errors.errorString)';",
			body:     func() error { return errors.New("plain") },
			expected: []string{"testBegin testCase", "testEnd"},
		},
		{
			name:     "ignored by annotation",
			source:   "'@ignore(flaky)';",
			body:     func() error { panic("must not run") },
			expected: []string{"testBegin testCase", "ignored flaky", "testEnd"},
		},
		{
			name:     "ignored without reason",
			source:   "'@ignore';",
			body:     func() error { panic("must not run") },
			expected: []string{"testBegin testCase", "ignored ", "testEnd"},
		},
		{
			name:     "ignored from the body",
			body:     func() error { panic(&script.IgnoredError{Reason: "not today"}) },
			expected: []string{"testBegin testCase", "ignored not today", "testEnd"},
		},
		{
			name:     "invalid timeout annotation",
			source:   "'@timeout(soon)';",
			body:     func() error { return nil },
			expected: []string{"testBegin testCase", `errored invalid timeout "soon": strconv.ParseInt: parsing "soon": invalid syntax`, "testEnd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := script.NewEnv().Bind("Suite", script.NewSuite().
				Set("testCase", script.NewFunc(tt.source, tt.body)))

			log := &eventLog{}
			require.NoError(t, NewExecutor(tt.options, nil).Run(context.Background(), scan(t, env), log))

			expected := append([]string{"suiteBegin Suite"}, tt.expected...)
			expected = append(expected, "suiteEnd")
			assert.Equal(t, expected, log.events)
		})
	}
}

func TestExecutor_SetupAndTeardownErrors(t *testing.T) {
	t.Run("setup error skips test and teardown", func(t *testing.T) {
		c := &calls{}
		env := script.NewEnv().Bind("Suite", script.NewSuite().
			Set("setUp", script.NewFunc("'@before';", c.fn("before", func() error { return errors.New("no fixture") }))).
			Set("tearDown", script.NewFunc("'@after';", c.fn("after", nil))).
			Set("testA", script.NewFunc("", c.fn("testA", nil))))

		log := &eventLog{}
		require.NoError(t, NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), log))

		assert.Equal(t, []string{"before"}, c.names)
		assert.Contains(t, log.events, "errored Test setup error: no fixture")
	})

	t.Run("teardown runs after failure and reports its own error", func(t *testing.T) {
		c := &calls{}
		env := script.NewEnv().Bind("Suite", script.NewSuite().
			Set("tearDown", script.NewFunc("'@after';", c.fn("after", func() error { return errors.New("leak") }))).
			Set("testA", script.NewFunc("", c.fn("testA", fail("bad")))))

		log := &eventLog{}
		require.NoError(t, NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), log))

		assert.Equal(t, []string{"testA", "after"}, c.names)
		assert.Equal(t, []string{
			"suiteBegin Suite",
			"testBegin testA",
			"failed bad",
			"errored Test teardown error: leak",
			"testEnd",
			"suiteEnd",
		}, log.events)
	})

	t.Run("ignored test skips setup and teardown", func(t *testing.T) {
		c := &calls{}
		env := script.NewEnv().Bind("Suite", script.NewSuite().
			Set("setUp", script.NewFunc("'@before';", c.fn("before", nil))).
			Set("tearDown", script.NewFunc("'@after';", c.fn("after", nil))).
			Set("testA", script.NewFunc("'@ignore(later)';", c.fn("testA", nil))))

		require.NoError(t, NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), reporting.Nop{}))
		assert.Empty(t, c.names)
	})
}

func TestExecutor_ClassHooks(t *testing.T) {
	t.Run("not run for a suite without tests", func(t *testing.T) {
		c := &calls{}
		env := script.NewEnv().Bind("Empty", script.NewSuite().
			Set("init", script.NewFunc("'@beforeClass';", c.fn("beforeClass", nil))).
			Set("finish", script.NewFunc("'@afterClass';", c.fn("afterClass", nil))))

		log := &eventLog{}
		require.NoError(t, NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), log))

		assert.Empty(t, c.names)
		assert.Equal(t, []string{"suiteBegin Empty", "suiteEnd"}, log.events)
	})

	t.Run("before class error stops the run", func(t *testing.T) {
		c := &calls{}
		env := script.NewEnv().
			Bind("First", script.NewSuite().
				Set("init", script.NewFunc("'@beforeClass';", c.fn("beforeClass", func() error { return errors.New("db down") }))).
				Set("testA", script.NewFunc("", c.fn("testA", nil)))).
			Bind("Second", script.NewSuite().
				Set("testB", script.NewFunc("", c.fn("testB", nil))))

		log := &eventLog{}
		err := NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), log)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "db down")
		assert.Equal(t, []string{"beforeClass"}, c.names)
		assert.Equal(t, []string{"suiteBegin First", "suiteEnd"}, log.events)
	})

	t.Run("after class error is returned", func(t *testing.T) {
		env := script.NewEnv().Bind("Suite", script.NewSuite().
			Set("testA", script.NewFunc("", nil)).
			Set("finish", script.NewFunc("'@afterClass';", func() error { return errors.New("cleanup") })))

		err := NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), reporting.Nop{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after class finish")
	})
}

func TestExecutor_SuiteIgnore(t *testing.T) {
	c := &calls{}
	env := script.NewEnv().Bind("Skipped", script.NewSuite().
		Set(script.MarkerIgnore, "test class ignored").
		Set("setUp", script.NewFunc("'@before';", c.fn("before", nil))).
		Set("testA", script.NewFunc("'@ignore(own reason)';", c.fn("testA", nil))).
		Set("testB", script.NewFunc("", c.fn("testB", nil))))

	log := &eventLog{}
	require.NoError(t, NewExecutor(Options{}, nil).Run(context.Background(), scan(t, env), log))

	assert.Empty(t, c.names)
	assert.Equal(t, []string{
		"suiteBegin Skipped",
		"testBegin testA", "ignored test class ignored", "testEnd",
		"testBegin testB", "ignored test class ignored", "testEnd",
		"suiteEnd",
	}, log.events)
}

func TestExecutor_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	env := script.NewEnv().Bind("Slow", script.NewSuite().
		Set("testAnnotated", script.NewFunc("'@timeout(20)';", func() error {
			<-release
			return nil
		})).
		Set("testDefault", script.NewFunc("", func() error {
			<-release
			return nil
		})).
		Set("testFast", script.NewFunc("'@timeout(1000)';", func() error { return nil })))

	log := &eventLog{}
	err := NewExecutor(Options{DefaultTimeout: 30 * time.Millisecond}, nil).Run(context.Background(), scan(t, env), log)
	close(release)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"suiteBegin Slow",
		"testBegin testAnnotated", "failed Test timed out after 20ms", "testEnd",
		"testBegin testDefault", "failed Test timed out after 30ms", "testEnd",
		"testBegin testFast", "testEnd",
		"suiteEnd",
	}, log.events)
}

func TestExecutor_ContextCancelDoesNotAbortTests(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	env := script.NewEnv().Bind("Suite", script.NewSuite().
		Set("testA", script.NewFunc("'@timeout(1000)';", func() error {
			ran = true
			return nil
		})))

	log := &eventLog{}
	require.NoError(t, NewExecutor(Options{}, nil).Run(ctx, scan(t, env), log))
	assert.True(t, ran)
	assert.NotContains(t, strings.Join(log.events, "\n"), "timed out")
}

type panickingResolver struct{}

func (panickingResolver) Locate(script.Callable) (*script.Location, error) {
	panic("resolver exploded")
}

type failingResolver struct{}

func (failingResolver) Locate(script.Callable) (*script.Location, error) {
	return nil, errors.New("no location")
}

func TestExecutor_Locations(t *testing.T) {
	located := script.NewFunc("", nil)
	located.Location = &script.Location{File: "calc_test.gos", Line: 12}

	tests := []struct {
		name     string
		resolver script.LocationResolver
		expected *script.Location
	}{
		{name: "static", resolver: script.StaticLocations{}, expected: located.Location},
		{name: "none", resolver: nil, expected: nil},
		{name: "failing", resolver: failingResolver{}, expected: nil},
		{name: "panicking", resolver: panickingResolver{}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := script.NewEnv().Bind("Suite", script.NewSuite().Set("testA", located))

			recorder := reporting.NewRecorder()
			recorder.BeginFile("calc_test.gos")
			require.NoError(t, NewExecutor(Options{Locations: tt.resolver}, nil).Run(context.Background(), scan(t, env), recorder))
			result := recorder.EndFile(nil)

			require.Len(t, result.Suites, 1)
			require.Len(t, result.Suites[0].Tests, 1)
			assert.Equal(t, tt.expected, result.Suites[0].Tests[0].Location)
			assert.Equal(t, domain.StatusPassed, result.Suites[0].Tests[0].Status())
		})
	}
}

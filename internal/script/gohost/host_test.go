package gohost

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptunit/internal/annotation"
	"scriptunit/internal/discovery"
	"scriptunit/internal/domain"
	"scriptunit/internal/execution"
	"scriptunit/internal/reporting"
	"scriptunit/internal/script"
)

func TestParseLayout(t *testing.T) {
	src := []byte(`package main

import "unittest"

var (
	First  = 1
	Second = unittest.Suite{
		"__unittest": true,
		// @before
		"setUp": func() {},
		"testB": func() {
			// @timeout(50)
		},
		"testA": func() {},
	}
)

var _ = 3
`)

	l, err := parseLayout("layout_test.gos", src)
	require.NoError(t, err)

	assert.Equal(t, "main", l.pkg)
	assert.Equal(t, []string{"First", "Second"}, l.vars)

	suite := l.suites["Second"]
	require.NotNil(t, suite)
	assert.Equal(t, []string{"__unittest", "setUp", "testB", "testA"}, suite.order)
	assert.True(t, annotation.Extract(suite.members["setUp"].source).Has(annotation.Before))
	assert.False(t, annotation.Extract(suite.members["testB"].source).Has(annotation.Before))

	timeout, err := annotation.Extract(suite.members["testB"].source).Timeout()
	require.NoError(t, err)
	assert.Equal(t, int64(50), timeout.Milliseconds())
	assert.Equal(t, 10, suite.members["setUp"].line)
}

func TestParseLayout_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: "package main\nvar x = "},
		{name: "non stdlib import", src: "package main\nimport \"github.com/example/evil\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLayout("broken_test.gos", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestMemberOrder(t *testing.T) {
	members := map[string]any{"z": 1, "b": 2, "a": 3, "late": 4}
	l := &suiteLayout{order: []string{"b", "gone", "a"}}

	assert.Equal(t, []string{"b", "a", "late", "z"}, memberOrder(members, l))
}

func TestHost_LoadAndRun(t *testing.T) {
	path := filepath.Join("testdata", "calculator_test.gos")
	host := New(Options{
		Variables: map[string]string{"baseURL": "http://localhost"},
		Stdout:    &bytes.Buffer{},
		Stderr:    &bytes.Buffer{},
	}, nil)

	env, err := host.Load(context.Background(), path)
	require.NoError(t, err)

	bindings, err := env.Bindings()
	require.NoError(t, err)
	require.Len(t, bindings, 3)
	assert.Equal(t, "Version", bindings[0].Name)
	assert.Equal(t, "1.0", bindings[0].Value)

	suites, err := discovery.NewCandidates(nil).Scan(env)
	require.NoError(t, err)
	require.Len(t, suites, 2)

	calculator := suites[0]
	assert.Equal(t, "arithmetic checks", calculator.Description)
	require.NotNil(t, calculator.Before)
	var names []string
	for _, test := range calculator.Tests {
		names = append(names, test.Name)
	}
	assert.Equal(t, []string{"testAdd", "wrongSum", "testParse", "testBaseURL", "testSkipped"}, names)

	recorder := reporting.NewRecorder()
	recorder.BeginFile(path)
	executor := execution.NewExecutor(execution.Options{Locations: env.(script.LocationResolver)}, nil)
	require.NoError(t, executor.Run(context.Background(), suites, recorder))
	result := recorder.EndFile(nil)

	statuses := map[string]domain.Status{}
	for _, suite := range result.Suites {
		for _, test := range suite.Tests {
			statuses[suite.Name+"."+test.Name] = test.Status()
		}
	}
	assert.Equal(t, map[string]domain.Status{
		"Calculator.testAdd":     domain.StatusPassed,
		"Calculator.wrongSum":    domain.StatusFailed,
		"Calculator.testParse":   domain.StatusPassed,
		"Calculator.testBaseURL": domain.StatusPassed,
		"Calculator.testSkipped": domain.StatusIgnored,
		"Legacy.testOld":         domain.StatusIgnored,
	}, statuses)

	wrongSum := result.Suites[0].Tests[1]
	assert.Equal(t, "fails on purpose", wrongSum.Description)
	require.NotNil(t, wrongSum.Location)
	assert.Equal(t, path, wrongSum.Location.File)
	assert.Equal(t, 26, wrongSum.Location.Line)
	assert.Equal(t, "Objects do not match: expected <5>, actual <4>", wrongSum.Events[0].Message)
}

func TestHost_LoadErrors(t *testing.T) {
	host := New(Options{}, nil)

	t.Run("missing file", func(t *testing.T) {
		_, err := host.Load(context.Background(), filepath.Join("testdata", "missing_test.gos"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("forbidden import", func(t *testing.T) {
		_, err := host.Load(context.Background(), filepath.Join("testdata", "forbidden_test.gos"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "github.com/example/evil")
	})
}

func TestAssertions(t *testing.T) {
	tests := []struct {
		name    string
		call    func()
		message string
	}{
		{name: "true", call: func() { AssertTrue(false) }, message: "Value is false"},
		{name: "false", call: func() { AssertFalse(true) }, message: "Value is true"},
		{name: "equals", call: func() { AssertEquals(1, 2) }, message: "Objects do not match: expected <1>, actual <2>"},
		{name: "not equals", call: func() { AssertNotEquals("a", "a") }, message: "Objects match"},
		{name: "nil", call: func() { AssertNil(3) }, message: "Object is not null, actual <3>"},
		{name: "not nil", call: func() { AssertNotNil([]int(nil)) }, message: "Object is null"},
		{name: "match", call: func() { AssertMatch(`\d+`, "12a") }, message: `"12a" does not match pattern "\\d+"`},
		{name: "custom message", call: func() { AssertTrue(false, "custom ", 1) }, message: "custom 1"},
		{name: "fail", call: func() { Fail("stop") }, message: "stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := script.Protect(func() error {
				tt.call()
				return nil
			})

			var assertionErr *script.AssertionError
			require.ErrorAs(t, err, &assertionErr)
			assert.Equal(t, tt.message, assertionErr.Message)
		})
	}

	t.Run("passing assertions do not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			AssertTrue(true)
			AssertEquals([]int{1}, []int{1})
			AssertNil(nil)
			AssertMatch(`\d+`, "123")
		})
	})
}

func TestNew_DiscardsInterpreterStderr(t *testing.T) {
	host := New(Options{}, nil)
	assert.Equal(t, io.Discard, host.opts.Stderr)

	var stderr bytes.Buffer
	host = New(Options{Stderr: &stderr}, nil)
	assert.Same(t, &stderr, host.opts.Stderr)
}

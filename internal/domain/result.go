package domain

import (
	"time"

	"scriptunit/internal/script"
)

// Status is the terminal classification of a test, suite or file.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusIgnored Status = "ignored"
)

// Severity orders statuses so containers can report their worst child.
func (s Status) Severity() int {
	switch s {
	case StatusError:
		return 3
	case StatusFailed:
		return 2
	case StatusPassed:
		return 1
	default:
		return 0
	}
}

// Event is one failure, error or ignore notification of a test.
type Event struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// TestResult holds everything reported for a single test.
type TestResult struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Location    *script.Location `json:"location,omitempty"`
	Events      []Event          `json:"events,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

// Status derives the outcome from the reported events; no event means passed.
// A failure or error reported next to an ignore (teardown) still counts.
func (t *TestResult) Status() Status {
	status := StatusPassed
	ignored := false
	for _, e := range t.Events {
		if e.Status == StatusIgnored {
			ignored = true
			continue
		}
		if e.Status.Severity() > status.Severity() {
			status = e.Status
		}
	}
	if ignored && status == StatusPassed {
		return StatusIgnored
	}
	return status
}

// SuiteResult holds the results of one suite.
type SuiteResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Tests       []*TestResult `json:"tests"`
}

// Status is the worst status of the suite's tests; a suite whose tests were all
// ignored is ignored.
func (s *SuiteResult) Status() Status {
	if len(s.Tests) == 0 {
		return StatusPassed
	}
	status := StatusIgnored
	for _, t := range s.Tests {
		if ts := t.Status(); ts.Severity() > status.Severity() {
			status = ts
		}
	}
	return status
}

// FileResult represents the result of executing one script file.
type FileResult struct {
	TestPath string         // Path to the script file that was executed
	Suites   []*SuiteResult // Suites in execution order
	Error    error          // Load, scan or class hook error that stopped the file
	Duration time.Duration  // Time taken to execute
}

// Success reports whether the file ran to completion without failed or errored tests.
func (r *FileResult) Success() bool {
	return r.Error == nil && r.Counts().Failed+r.Counts().Errors == 0
}

// Counts tallies test outcomes of the file.
func (r *FileResult) Counts() Counts {
	var c Counts
	for _, s := range r.Suites {
		for _, t := range s.Tests {
			c.Add(t.Status())
		}
	}
	return c
}

// Counts tallies outcomes.
type Counts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errors  int `json:"errors"`
	Ignored int `json:"ignored"`
}

// Add counts one outcome.
func (c *Counts) Add(status Status) {
	switch status {
	case StatusPassed:
		c.Passed++
	case StatusFailed:
		c.Failed++
	case StatusError:
		c.Errors++
	case StatusIgnored:
		c.Ignored++
	}
}

// Merge adds other to c.
func (c *Counts) Merge(other Counts) {
	c.Passed += other.Passed
	c.Failed += other.Failed
	c.Errors += other.Errors
	c.Ignored += other.Ignored
}

// Total returns the number of counted tests.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Errors + c.Ignored
}

// TestResultsMeta contains metadata about a test run
type TestResultsMeta struct {
	RunID           string  `json:"run_id"`
	TotalTestFiles  int     `json:"total_test_files"`
	FailedTestFiles int     `json:"failed_test_files"`
	PassedTestFiles int     `json:"passed_test_files"`
	TotalTestCases  int     `json:"total_test_cases"`
	PassedTestCases int     `json:"passed_test_cases"`
	FailedTestCases int     `json:"failed_test_cases"`
	ErrorTestCases  int     `json:"error_test_cases"`
	IgnoredCases    int     `json:"ignored_test_cases"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Timestamp       string  `json:"timestamp"`
}

// TestResultsOutput is the complete output structure for test results
type TestResultsOutput struct {
	Meta        TestResultsMeta `json:"meta"`
	FailedFiles []string        `json:"failed_files,omitempty"`
	Details     []TestFailure   `json:"details"`
}

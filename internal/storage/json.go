package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scriptunit/internal/domain"
)

// Save summarizes a run, writes it to the configured JSON output file and
// returns what was written.
func (s *JSONStorage) Save(results []*domain.FileResult, duration time.Duration) (*domain.TestResultsOutput, error) {
	output := BuildOutput(s.newID(), results, duration, s.now())
	if err := s.SaveOutput(output); err != nil {
		return nil, err
	}
	return output, nil
}

// Load reads the last test results from the configured JSON output file.
func (s *JSONStorage) Load() (*domain.TestResultsOutput, error) {
	path := s.cfg.GetOutputPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var output domain.TestResultsOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &output, nil
}

// SaveOutput writes the full output to the configured JSON file.
func (s *JSONStorage) SaveOutput(output *domain.TestResultsOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	path := s.cfg.GetOutputPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// BuildOutput summarizes file results. Every failed or errored test, and every
// file that stopped early, becomes one detail entry.
func BuildOutput(runID string, results []*domain.FileResult, duration time.Duration, now time.Time) *domain.TestResultsOutput {
	output := &domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{
			RunID:           runID,
			TotalTestFiles:  len(results),
			Duration:        duration.String(),
			DurationSeconds: duration.Seconds(),
			Timestamp:       now.Format(time.RFC3339),
		},
		Details: []domain.TestFailure{},
	}

	var counts domain.Counts
	for _, result := range results {
		counts.Merge(result.Counts())
		if result.Success() {
			output.Meta.PassedTestFiles++
		} else {
			output.Meta.FailedTestFiles++
			output.FailedFiles = append(output.FailedFiles, result.TestPath)
		}
		output.Details = append(output.Details, failuresOf(result)...)
	}

	output.Meta.TotalTestCases = counts.Total()
	output.Meta.PassedTestCases = counts.Passed
	output.Meta.FailedTestCases = counts.Failed
	output.Meta.ErrorTestCases = counts.Errors
	output.Meta.IgnoredCases = counts.Ignored

	return output
}

func failuresOf(result *domain.FileResult) []domain.TestFailure {
	var failures []domain.TestFailure

	if result.Error != nil {
		failures = append(failures, domain.TestFailure{
			TestName: filepath.Base(result.TestPath),
			FilePath: result.TestPath,
			Status:   domain.StatusError,
			Message:  result.Error.Error(),
			File:     result.TestPath,
		})
	}

	for _, suite := range result.Suites {
		for _, test := range suite.Tests {
			status := test.Status()
			if status != domain.StatusFailed && status != domain.StatusError {
				continue
			}

			failure := domain.TestFailure{
				TestName:  test.Name,
				SuiteName: suite.Name,
				FilePath:  result.TestPath,
				Status:    status,
				File:      result.TestPath,
			}
			if test.Location != nil {
				failure.File = test.Location.File
				failure.Line = test.Location.Line
			}

			var messages []string
			for _, event := range test.Events {
				if event.Status == domain.StatusIgnored {
					continue
				}
				messages = append(messages, event.Message)
				failure.StackTrace = append(failure.StackTrace, traceLines(event.Trace)...)
			}
			failure.Message = strings.Join(messages, "\n")

			failures = append(failures, failure)
		}
	}

	return failures
}

func traceLines(trace string) []string {
	var lines []string
	for _, line := range strings.Split(trace, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

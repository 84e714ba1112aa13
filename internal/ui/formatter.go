package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"scriptunit/internal/config"
	"scriptunit/internal/domain"
	"scriptunit/internal/history"
)

// SuiteLister finds the suites of a script file without running them
type SuiteLister interface {
	FindSuites(ctx context.Context, filePath string) ([]*domain.TestSuite, error)
}

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to stdout
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{config: cfg, out: os.Stdout}
}

// SetOutput redirects the formatter
func (f *Formatter) SetOutput(out io.Writer) {
	f.out = out
}

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
)

const (
	tableTop    = "┌─────────────────────────────────┬─────────────────────────────┐"
	tableMiddle = "├─────────────────────────────────┼─────────────────────────────┤"
	tableBottom = "└─────────────────────────────────┴─────────────────────────────┘"
)

// PrintSummary displays the statistics of a run followed by its failures
func (f *Formatter) PrintSummary(output *domain.TestResultsOutput) {
	meta := output.Meta

	fmt.Fprintln(f.out)
	cyan.Fprintln(f.out, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(f.out, "║                    Test Execution Statistics                  ║")
	cyan.Fprintln(f.out, "╚═══════════════════════════════════════════════════════════════╝")

	rows := []struct {
		label string
		value string
		c     *color.Color
	}{
		{"Total Test Files", fmt.Sprint(meta.TotalTestFiles), white},
		{"Passed Test Files", fmt.Sprint(meta.PassedTestFiles), green},
		{"Failed Test Files", fmt.Sprint(meta.FailedTestFiles), red},
		{"Passed Test Cases", fmt.Sprint(meta.PassedTestCases), green},
		{"Failed Test Cases", fmt.Sprint(meta.FailedTestCases), red},
		{"Errored Test Cases", fmt.Sprint(meta.ErrorTestCases), red},
		{"Ignored Test Cases", fmt.Sprint(meta.IgnoredCases), yellow},
		{"Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), white},
		{"Run ID", meta.RunID, white},
		{"Timestamp", meta.Timestamp, white},
	}

	fmt.Fprintln(f.out, tableTop)
	for i, row := range rows {
		if i > 0 {
			fmt.Fprintln(f.out, tableMiddle)
		}
		fmt.Fprintf(f.out, "│ %-31s │ ", row.label)
		row.c.Fprintf(f.out, "%-27s", row.value)
		fmt.Fprintln(f.out, " │")
	}
	fmt.Fprintln(f.out, tableBottom)

	fmt.Fprintln(f.out)
	if meta.FailedTestFiles == 0 {
		green.Fprintln(f.out, "✓ All tests passed!")
		return
	}

	red.Fprintf(f.out, "✗ %d test file(s) failed with %d failure(s) and %d error(s)\n",
		meta.FailedTestFiles, meta.FailedTestCases, meta.ErrorTestCases)
	fmt.Fprintln(f.out)
	f.printFailedTestsTree(output.Details)
}

// printFailedTestsTree prints failures grouped by file and suite
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	byFile := make(map[string][]domain.TestFailure)
	for _, failure := range failures {
		byFile[failure.FilePath] = append(byFile[failure.FilePath], failure)
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	for i, file := range files {
		isLastFile := i == len(files)-1
		yellow.Fprintf(f.out, "%s%s\n", branch(isLastFile), f.relative(file))

		fileFailures := byFile[file]
		for j, failure := range fileFailures {
			name := failure.TestName
			if failure.SuiteName != "" {
				name = failure.SuiteName + " › " + failure.TestName
			}
			fmt.Fprint(f.out, indent(isLastFile)+branch(j == len(fileFailures)-1))
			red.Fprintf(f.out, "%s", name)
			if message := firstLine(failure.Message); message != "" {
				fmt.Fprintf(f.out, ": %s", message)
			}
			fmt.Fprintln(f.out)
		}
	}
}

// PrintTestList prints test files, optionally with their suites and test
// cases. Files in failedPaths (from the last run) are marked with [F].
func (f *Formatter) PrintTestList(ctx context.Context, files []string, lister SuiteLister, failedPaths map[string]struct{}) error {
	if lister == nil {
		green.Fprintf(f.out, "Found %d test file(s):\n", len(files))
	} else {
		green.Fprintf(f.out, "Found %d test file(s) with test cases:\n", len(files))
	}

	for i, file := range files {
		isLastFile := i == len(files)-1

		marker := ""
		if _, ok := failedPaths[filepath.Clean(file)]; ok {
			marker = " " + red.Sprint("[F]")
		}
		cyan.Fprintf(f.out, "%s%s%s\n", branch(isLastFile), f.relative(file), marker)

		if lister == nil {
			continue
		}

		suites, err := lister.FindSuites(ctx, file)
		if err != nil {
			fmt.Fprintf(f.out, "%s%s\n", indent(isLastFile)+branch(true), red.Sprintf("error: %v", err))
			continue
		}
		if len(suites) == 0 {
			fmt.Fprintf(f.out, "%s%s\n", indent(isLastFile)+branch(true), red.Sprint("(no test suites found)"))
			continue
		}

		for j, suite := range suites {
			isLastSuite := j == len(suites)-1
			label := suite.Name
			if suite.Ignored() {
				label += yellow.Sprintf(" (ignored: %s)", suite.IgnoreReason)
			}
			fmt.Fprintf(f.out, "%s%s\n", indent(isLastFile)+branch(isLastSuite), label)

			for k, test := range suite.Tests {
				name := test.Name
				if description := test.Description(); description != "" {
					name += " - " + description
				}
				prefix := indent(isLastFile) + indent(isLastSuite) + branch(k == len(suite.Tests)-1)
				fmt.Fprintf(f.out, "%s%s\n", prefix, yellow.Sprint(name))
			}
		}
	}

	return nil
}

// PrintHistory prints recorded runs, newest first
func (f *Formatter) PrintHistory(runs []history.Run) {
	if len(runs) == 0 {
		yellow.Fprintln(f.out, "No runs recorded yet.")
		return
	}

	cyan.Fprintf(f.out, "%-36s  %-20s  %6s  %6s  %6s  %6s  %8s\n",
		"RUN", "FINISHED", "PASSED", "FAILED", "ERRORS", "IGNORED", "DURATION")
	for _, run := range runs {
		c := green
		if !run.Success() {
			c = red
		}
		c.Fprintf(f.out, "%-36s  %-20s  %6d  %6d  %6d  %6d  %7.2fs\n",
			run.RunID, run.FinishedAt.Format("2006-01-02 15:04:05"),
			run.Passed, run.Failed, run.Errors, run.Ignored, run.DurationSeconds)
	}
}

func (f *Formatter) relative(path string) string {
	if rel, err := filepath.Rel(f.config.ProjectPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func branch(last bool) string {
	if last {
		return "└── "
	}
	return "├── "
}

func indent(last bool) string {
	if last {
		return "    "
	}
	return "│   "
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

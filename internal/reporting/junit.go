package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scriptunit/internal/domain"
)

type junitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Hostname   string          `xml:"hostname,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Disabled   int             `xml:"disabled,attr"`
	Time       string          `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	ID         int             `xml:"id,attr"`
	Properties []junitProperty `xml:"properties>property,omitempty"`
	TestCases  []junitTestCase `xml:"testcase"`
}

type junitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type junitTestCase struct {
	Name      string         `xml:"name,attr"`
	ClassName string         `xml:"classname,attr"`
	Time      string         `xml:"time,attr"`
	Skipped   *junitMessage  `xml:"skipped,omitempty"`
	Failures  []junitMessage `xml:"failure,omitempty"`
	Errors    []junitMessage `xml:"error,omitempty"`
}

type junitMessage struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr,omitempty"`
	Body    string `xml:",chardata"`
}

// JUnitReport renders file results as a JUnit XML document.
type JUnitReport struct {
	Title      string
	Properties map[string]string
	Started    time.Time
}

// Render builds the XML document.
func (j *JUnitReport) Render(results []*domain.FileResult) ([]byte, error) {
	suite := junitTestSuite{
		Name:      j.Title,
		Hostname:  "localhost",
		Timestamp: j.Started.Format("2006-01-02T15:04"),
	}

	var total time.Duration
	for _, file := range results {
		total += file.Duration
		if file.Error != nil {
			// a file that stopped before or between suites still shows up
			suite.Tests++
			suite.Errors++
			suite.TestCases = append(suite.TestCases, junitTestCase{
				Name:      filepath.Base(file.TestPath),
				ClassName: className(file.TestPath, ""),
				Time:      seconds(file.Duration),
				Errors:    []junitMessage{{Message: file.Error.Error(), Type: "script aborted"}},
			})
		}

		for _, s := range file.Suites {
			for _, t := range s.Tests {
				suite.TestCases = append(suite.TestCases, j.testCase(file.TestPath, s, t, &suite))
			}
		}
	}
	suite.Time = seconds(total)

	keys := make([]string, 0, len(j.Properties))
	for k := range j.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		suite.Properties = append(suite.Properties, junitProperty{Name: k, Value: j.Properties[k]})
	}

	data, err := xml.MarshalIndent(suite, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal junit report: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// Write renders the report to path, creating parent directories.
func (j *JUnitReport) Write(path string, results []*domain.FileResult) error {
	data, err := j.Render(results)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write junit report: %w", err)
	}
	return nil
}

func (j *JUnitReport) testCase(path string, s *domain.SuiteResult, t *domain.TestResult, suite *junitTestSuite) junitTestCase {
	tc := junitTestCase{
		Name:      t.Name,
		ClassName: className(path, s.Name),
		Time:      seconds(t.Duration),
	}
	suite.Tests++

	if t.Status() == domain.StatusIgnored {
		suite.Disabled++
		for _, e := range t.Events {
			if e.Status == domain.StatusIgnored {
				tc.Skipped = &junitMessage{Message: e.Message}
				break
			}
		}
		return tc
	}

	for _, e := range t.Events {
		switch e.Status {
		case domain.StatusFailed:
			suite.Failures++
			tc.Failures = append(tc.Failures, junitMessage{Message: e.Message, Type: "verification mismatch", Body: e.Trace})
		case domain.StatusError:
			suite.Errors++
			tc.Errors = append(tc.Errors, junitMessage{Message: e.Message, Type: "script aborted", Body: e.Trace})
		}
	}
	return tc
}

func className(path, suite string) string {
	name := strings.TrimSuffix(filepath.ToSlash(path), filepath.Ext(path))
	if suite == "" {
		return name
	}
	return name + "/" + strings.Join(strings.Fields(suite), "_")
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

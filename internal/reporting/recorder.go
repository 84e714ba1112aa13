package reporting

import (
	"time"

	"scriptunit/internal/domain"
	"scriptunit/internal/script"
)

// Recorder is the sink that retains outcomes, building one FileResult per
// executed script file.
type Recorder struct {
	file      *domain.FileResult
	suite     *domain.SuiteResult
	test      *domain.TestResult
	fileStart time.Time
	testStart time.Time
	now       func() time.Time
}

// NewRecorder creates a new Recorder
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// BeginFile starts collecting results for a script file.
func (r *Recorder) BeginFile(path string) {
	r.file = &domain.FileResult{TestPath: path}
	r.suite = nil
	r.test = nil
	r.fileStart = r.now()
}

// EndFile closes the current file and returns its results.
func (r *Recorder) EndFile(err error) *domain.FileResult {
	if r.file == nil {
		return nil
	}
	result := r.file
	result.Error = err
	result.Duration = r.now().Sub(r.fileStart)
	r.file, r.suite, r.test = nil, nil, nil
	return result
}

func (r *Recorder) SuiteBegin(name, description string) {
	if r.file == nil {
		r.BeginFile("")
	}
	r.suite = &domain.SuiteResult{Name: name, Description: description}
	r.file.Suites = append(r.file.Suites, r.suite)
}

func (r *Recorder) TestBegin(name, description string, location *script.Location) {
	if r.suite == nil {
		r.SuiteBegin("", "")
	}
	r.test = &domain.TestResult{Name: name, Description: description, Location: location}
	r.suite.Tests = append(r.suite.Tests, r.test)
	r.testStart = r.now()
}

func (r *Recorder) TestFailed(message, trace string) {
	r.addEvent(domain.StatusFailed, message, trace)
}

func (r *Recorder) TestErrored(message, trace string) {
	r.addEvent(domain.StatusError, message, trace)
}

func (r *Recorder) TestIgnored(reason string) {
	r.addEvent(domain.StatusIgnored, reason, "")
}

func (r *Recorder) TestEnd() {
	if r.test != nil {
		r.test.Duration = r.now().Sub(r.testStart)
		r.test = nil
	}
}

func (r *Recorder) SuiteEnd() {
	r.suite = nil
}

func (r *Recorder) addEvent(status domain.Status, message, trace string) {
	if r.test == nil {
		return
	}
	r.test.Events = append(r.test.Events, domain.Event{Status: status, Message: message, Trace: trace})
}

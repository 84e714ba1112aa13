// Package reporting receives lifecycle events from the test executor.
package reporting

import (
	"scriptunit/internal/domain"
	"scriptunit/internal/script"
)

// Sink receives lifecycle events in emission order: SuiteBegin, then per test
// TestBegin, at most one of TestFailed/TestErrored/TestIgnored (plus a
// teardown TestErrored), TestEnd, and finally SuiteEnd.
type Sink interface {
	SuiteBegin(name, description string)
	TestBegin(name, description string, location *script.Location)
	TestFailed(message, trace string)
	TestErrored(message, trace string)
	TestIgnored(reason string)
	TestEnd()
	SuiteEnd()
}

// FileObserver is an optional capability of a sink to hear about script files
// starting and finishing.
type FileObserver interface {
	FileBegin(path string)
	FileEnd(result *domain.FileResult)
}

// Nop discards all events.
type Nop struct{}

func (Nop) SuiteBegin(string, string)                  {}
func (Nop) TestBegin(string, string, *script.Location) {}
func (Nop) TestFailed(string, string)                  {}
func (Nop) TestErrored(string, string)                 {}
func (Nop) TestIgnored(string)                         {}
func (Nop) TestEnd()                                   {}
func (Nop) SuiteEnd()                                  {}

// Multi forwards every event to all of its sinks, in order.
type Multi []Sink

// NewMulti combines sinks, skipping nil ones.
func NewMulti(sinks ...Sink) Multi {
	var m Multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m Multi) SuiteBegin(name, description string) {
	for _, s := range m {
		s.SuiteBegin(name, description)
	}
}

func (m Multi) TestBegin(name, description string, location *script.Location) {
	for _, s := range m {
		s.TestBegin(name, description, location)
	}
}

func (m Multi) TestFailed(message, trace string) {
	for _, s := range m {
		s.TestFailed(message, trace)
	}
}

func (m Multi) TestErrored(message, trace string) {
	for _, s := range m {
		s.TestErrored(message, trace)
	}
}

func (m Multi) TestIgnored(reason string) {
	for _, s := range m {
		s.TestIgnored(reason)
	}
}

func (m Multi) TestEnd() {
	for _, s := range m {
		s.TestEnd()
	}
}

func (m Multi) SuiteEnd() {
	for _, s := range m {
		s.SuiteEnd()
	}
}

func (m Multi) FileBegin(path string) {
	for _, s := range m {
		if o, ok := s.(FileObserver); ok {
			o.FileBegin(path)
		}
	}
}

func (m Multi) FileEnd(result *domain.FileResult) {
	for _, s := range m {
		if o, ok := s.(FileObserver); ok {
			o.FileEnd(result)
		}
	}
}

package script

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
)

// ErrTimeout is returned when a test invocation exceeds its time budget.
var ErrTimeout = errors.New("test timed out")

// AssertionError signals a failed test assertion.
type AssertionError struct {
	Message string
	Trace   string
}

func (e *AssertionError) Error() string {
	return e.Message
}

// IgnoredError signals that a test body asked to be skipped.
type IgnoredError struct {
	Reason string
}

func (e *IgnoredError) Error() string {
	if e.Reason == "" {
		return "test ignored"
	}
	return "test ignored: " + e.Reason
}

// ThrownError is anything else a callable raised. Kind is the error-kind name
// used for expected-exception matching.
type ThrownError struct {
	Kind    string
	Message string
	Value   any
	Trace   string
}

func (e *ThrownError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

// Unwrap exposes a wrapped Go error, if the thrown value was one.
func (e *ThrownError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Throw builds a ThrownError of the given kind.
func Throw(kind, message string) *ThrownError {
	return &ThrownError{Kind: kind, Message: message}
}

// KindOf returns the error-kind name of a thrown value.
func KindOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case interface{ Kind() string }:
		return v.Kind()
	case runtime.Error:
		return "runtime.Error"
	}

	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// Classify turns a raw thrown value into one of the typed errors above.
func Classify(value any, trace string) error {
	switch v := value.(type) {
	case nil:
		return nil
	case *AssertionError:
		if v.Trace == "" {
			v.Trace = trace
		}
		return v
	case *IgnoredError:
		return v
	case *ThrownError:
		if v.Trace == "" {
			v.Trace = trace
		}
		return v
	case error:
		var assertion *AssertionError
		if errors.As(v, &assertion) {
			return assertion
		}
		var ignored *IgnoredError
		if errors.As(v, &ignored) {
			return ignored
		}
		var thrown *ThrownError
		if errors.As(v, &thrown) {
			return thrown
		}
		return &ThrownError{Kind: KindOf(v), Message: v.Error(), Value: v, Trace: trace}
	default:
		return &ThrownError{Kind: KindOf(v), Message: fmt.Sprint(v), Value: v, Trace: trace}
	}
}

// Protect runs fn and converts a panic into a classified error.
func Protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Classify(r, string(debug.Stack()))
		}
	}()

	if err := fn(); err != nil {
		return Classify(err, "")
	}
	return nil
}

// MessageOf extracts the human readable message of an error raised by a script.
func MessageOf(err error) string {
	var assertion *AssertionError
	if errors.As(err, &assertion) {
		return assertion.Message
	}
	var thrown *ThrownError
	if errors.As(err, &thrown) && thrown.Message != "" {
		return thrown.Message
	}
	return err.Error()
}

// TraceOf extracts the trace attached to an error raised by a script.
func TraceOf(err error) string {
	var assertion *AssertionError
	if errors.As(err, &assertion) {
		return assertion.Trace
	}
	var thrown *ThrownError
	if errors.As(err, &thrown) {
		return thrown.Trace
	}
	return ""
}

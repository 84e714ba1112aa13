package gohost

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/traefik/yaegi/interp"

	"scriptunit/internal/script"
)

// ImportPath is the package scripts import to declare suites and assert.
const ImportPath = "unittest"

// Suite is the type scripts use to declare a test suite. Keys are member
// names; values are test functions, hooks or the marker entries.
type Suite map[string]any

func describe(fallback string, message []any) string {
	if len(message) == 0 {
		return fallback
	}
	return fmt.Sprint(message...)
}

func assertion(ok bool, fallback string, message []any) {
	if !ok {
		panic(&script.AssertionError{Message: describe(fallback, message)})
	}
}

// AssertTrue fails the running test when value is false.
func AssertTrue(value bool, message ...any) {
	assertion(value, "Value is false", message)
}

// AssertFalse fails the running test when value is true.
func AssertFalse(value bool, message ...any) {
	assertion(!value, "Value is true", message)
}

// AssertEquals fails the running test when expected and actual differ.
func AssertEquals(expected, actual any, message ...any) {
	assertion(reflect.DeepEqual(expected, actual),
		fmt.Sprintf("Objects do not match: expected <%v>, actual <%v>", expected, actual), message)
}

// AssertNotEquals fails the running test when expected and actual are equal.
func AssertNotEquals(expected, actual any, message ...any) {
	assertion(!reflect.DeepEqual(expected, actual), "Objects match", message)
}

// AssertNil fails the running test when value is not nil.
func AssertNil(value any, message ...any) {
	assertion(isNil(value), fmt.Sprintf("Object is not null, actual <%v>", value), message)
}

// AssertNotNil fails the running test when value is nil.
func AssertNotNil(value any, message ...any) {
	assertion(!isNil(value), "Object is null", message)
}

// AssertMatch fails the running test unless candidate fully matches pattern.
func AssertMatch(pattern, candidate string, message ...any) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		panic(script.Throw("regexp.Error", err.Error()))
	}
	assertion(re.MatchString(candidate),
		fmt.Sprintf("%q does not match pattern %q", candidate, pattern), message)
}

// Fail fails the running test.
func Fail(message string) {
	panic(&script.AssertionError{Message: message})
}

// IgnoreTest stops the running test and reports it as ignored.
func IgnoreTest(reason string) {
	panic(&script.IgnoredError{Reason: reason})
}

// Throw raises an error of the given kind, matched by @expect annotations.
func Throw(kind, message string) {
	panic(script.Throw(kind, message))
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// exports builds the symbol table of the unittest package for one
// interpreter. Var reads the run variables.
func exports(variables map[string]string) interp.Exports {
	lookup := func(name string) string {
		return variables[name]
	}

	return interp.Exports{
		ImportPath + "/" + ImportPath: {
			"Suite":           reflect.ValueOf((*Suite)(nil)),
			"AssertTrue":      reflect.ValueOf(AssertTrue),
			"AssertFalse":     reflect.ValueOf(AssertFalse),
			"AssertEquals":    reflect.ValueOf(AssertEquals),
			"AssertNotEquals": reflect.ValueOf(AssertNotEquals),
			"AssertNil":       reflect.ValueOf(AssertNil),
			"AssertNotNil":    reflect.ValueOf(AssertNotNil),
			"AssertMatch":     reflect.ValueOf(AssertMatch),
			"Fail":            reflect.ValueOf(Fail),
			"IgnoreTest":      reflect.ValueOf(IgnoreTest),
			"Throw":           reflect.ValueOf(Throw),
			"Var":             reflect.ValueOf(lookup),
		},
	}
}

// Package script defines the capabilities a host interpreter must offer so the
// test engine can discover and run script-level test suites, plus an
// in-memory host used for embedding and tests.
package script

import (
	"context"
	"fmt"
)

// Marker members read from a suite object.
const (
	MarkerUnitTest    = "__unittest"
	MarkerDescription = "__description"
	MarkerIgnore      = "__ignore"
)

// Binding is a named top-level value of an environment.
type Binding struct {
	Name  string
	Value any
}

// Member is a named attribute of an object.
type Member struct {
	Name  string
	Value any
}

// Environment exposes the top-level bindings of an executed script.
type Environment interface {
	// Bindings returns a snapshot of all bindings in declaration order.
	Bindings() ([]Binding, error)
}

// Object is a script-level record whose members can be enumerated.
type Object interface {
	// Members returns the members in declaration order.
	Members() []Member
	// Lookup returns a single member value.
	Lookup(name string) (any, bool)
}

// Callable is a script function that can be invoked without arguments and
// that can hand out its defining source text.
type Callable interface {
	Source() string
	Call(ctx context.Context) error
}

// Location points at the definition of a callable.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// String formats the location as file:line.
func (l Location) String() string {
	if l.Line <= 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Loader evaluates a script file into an environment. Environments that also
// implement LocationResolver get their test locations reported.
type Loader interface {
	Load(ctx context.Context, path string) (Environment, error)
}

// LocationResolver is an optional capability of a host to resolve where a
// callable was defined.
type LocationResolver interface {
	Locate(c Callable) (*Location, error)
}

// Stringify renders a script value the way markers are read.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

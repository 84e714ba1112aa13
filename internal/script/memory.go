package script

import (
	"context"
)

// Env is an in-memory Environment keeping bindings in insertion order.
type Env struct {
	bindings []Binding
}

// NewEnv creates an empty in-memory environment.
func NewEnv() *Env {
	return &Env{}
}

// Bind adds or replaces a top-level binding.
func (e *Env) Bind(name string, value any) *Env {
	for i := range e.bindings {
		if e.bindings[i].Name == name {
			e.bindings[i].Value = value
			return e
		}
	}
	e.bindings = append(e.bindings, Binding{Name: name, Value: value})
	return e
}

// Bindings returns a copy of the bindings.
func (e *Env) Bindings() ([]Binding, error) {
	snapshot := make([]Binding, len(e.bindings))
	copy(snapshot, e.bindings)
	return snapshot, nil
}

// Obj is an in-memory Object keeping members in insertion order.
type Obj struct {
	members []Member
}

// NewObj creates an empty in-memory object.
func NewObj() *Obj {
	return &Obj{}
}

// NewSuite creates an object already carrying the unit test marker.
func NewSuite() *Obj {
	return NewObj().Set(MarkerUnitTest, true)
}

// Set adds or replaces a member.
func (o *Obj) Set(name string, value any) *Obj {
	for i := range o.members {
		if o.members[i].Name == name {
			o.members[i].Value = value
			return o
		}
	}
	o.members = append(o.members, Member{Name: name, Value: value})
	return o
}

// Members returns a copy of the members.
func (o *Obj) Members() []Member {
	members := make([]Member, len(o.members))
	copy(members, o.members)
	return members
}

// Lookup returns a single member value.
func (o *Obj) Lookup(name string) (any, bool) {
	for _, m := range o.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

// Func is a Go function exposed as a Callable, with the source text its
// annotations are read from.
type Func struct {
	Text     string
	Fn       func() error
	Location *Location
}

// NewFunc wraps fn with its annotation source.
func NewFunc(source string, fn func() error) *Func {
	return &Func{Text: source, Fn: fn}
}

// Source returns the annotation source text.
func (f *Func) Source() string {
	return f.Text
}

// Call invokes the function, turning panics into classified errors.
func (f *Func) Call(ctx context.Context) error {
	if f.Fn == nil {
		return nil
	}
	return Protect(f.Fn)
}

// StaticLocations resolves locations of in-memory functions.
type StaticLocations struct{}

// Locate returns the location stored on a Func.
func (StaticLocations) Locate(c Callable) (*Location, error) {
	if f, ok := c.(*Func); ok && f.Location != nil {
		return f.Location, nil
	}
	return nil, nil
}

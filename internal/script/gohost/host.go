// Package gohost loads Go test scripts with the yaegi interpreter and exposes
// their top-level variables as a script environment.
package gohost

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime/debug"
	"sort"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"

	"scriptunit/internal/script"
)

// Options configure the interpreter of every loaded script.
type Options struct {
	// Variables are readable from scripts through unittest.Var.
	Variables map[string]string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Host loads script files
type Host struct {
	opts   Options
	logger *zap.Logger
}

// New creates a new Host
func New(opts Options, logger *zap.Logger) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	// interpreter panic traces duplicate what the sinks report
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	return &Host{opts: opts, logger: logger}
}

// Load reads and evaluates the script at path.
func (h *Host) Load(ctx context.Context, path string) (script.Environment, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return h.LoadSource(ctx, path, src)
}

// LoadSource evaluates src as if it was read from filename.
func (h *Host) LoadSource(ctx context.Context, filename string, src []byte) (*Program, error) {
	l, err := parseLayout(filename, src)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{Stdout: h.opts.Stdout, Stderr: h.opts.Stderr})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib: %w", err)
	}
	if err := i.Use(exports(h.opts.Variables)); err != nil {
		return nil, fmt.Errorf("failed to load unittest package: %w", err)
	}

	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	program := &Program{file: filename}
	for _, name := range l.vars {
		v, err := i.Eval(l.pkg + "." + name)
		if err != nil {
			return nil, fmt.Errorf("read variable %s: %w", name, err)
		}
		if !v.IsValid() {
			continue
		}
		program.bindings = append(program.bindings, script.Binding{
			Name:  name,
			Value: program.wrap(v.Interface(), l.suites[name]),
		})
	}

	h.logger.Debug("script loaded", zap.String("file", filename), zap.Int("bindings", len(program.bindings)))
	return program, nil
}

// Program is an evaluated script. It is both the environment and the location
// resolver of its tests.
type Program struct {
	file     string
	bindings []script.Binding
}

// Bindings returns the top-level variables in declaration order.
func (p *Program) Bindings() ([]script.Binding, error) {
	bindings := make([]script.Binding, len(p.bindings))
	copy(bindings, p.bindings)
	return bindings, nil
}

// Locate returns where a script function was declared.
func (p *Program) Locate(c script.Callable) (*script.Location, error) {
	f, ok := c.(*function)
	if !ok {
		return nil, fmt.Errorf("%T was not loaded from a script", c)
	}
	if f.line == 0 {
		return nil, nil
	}
	return &script.Location{File: p.file, Line: f.line}, nil
}

func (p *Program) wrap(value any, l *suiteLayout) any {
	members, ok := value.(Suite)
	if !ok {
		if m, isMap := value.(map[string]any); isMap {
			members = m
			ok = true
		}
	}
	if !ok {
		return value
	}
	if l == nil {
		l = &suiteLayout{members: map[string]memberLayout{}}
	}

	obj := &object{}
	for _, name := range memberOrder(members, l) {
		meta := l.members[name]
		v := members[name]
		if fn := asFunction(v, meta); fn != nil {
			v = fn
		}
		obj.members = append(obj.members, script.Member{Name: name, Value: v})
	}
	return obj
}

// memberOrder lists members in source order, followed by members added at
// runtime in name order.
func memberOrder(members map[string]any, l *suiteLayout) []string {
	order := make([]string, 0, len(members))
	listed := make(map[string]bool, len(l.order))
	for _, name := range l.order {
		if _, ok := members[name]; ok {
			order = append(order, name)
			listed[name] = true
		}
	}

	var extra []string
	for name := range members {
		if !listed[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	return append(order, extra...)
}

type object struct {
	members []script.Member
}

func (o *object) Members() []script.Member {
	members := make([]script.Member, len(o.members))
	copy(members, o.members)
	return members
}

func (o *object) Lookup(name string) (any, bool) {
	for _, m := range o.members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return nil, false
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// function is a script function without parameters, returning nothing or an
// error.
type function struct {
	fn     reflect.Value
	source string
	line   int
}

func asFunction(value any, meta memberLayout) *function {
	if value == nil {
		return nil
	}
	fn := reflect.ValueOf(value)
	if fn.Kind() != reflect.Func || fn.Type().NumIn() != 0 {
		return nil
	}
	switch fn.Type().NumOut() {
	case 0:
	case 1:
		if !fn.Type().Out(0).Implements(errorType) {
			return nil
		}
	default:
		return nil
	}
	return &function{fn: fn, source: meta.source, line: meta.line}
}

func (f *function) Source() string {
	return f.source
}

func (f *function) Call(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if p, ok := r.(interp.Panic); ok {
				err = script.Classify(p.Value, string(p.Stack))
				return
			}
			err = script.Classify(r, string(debug.Stack()))
		}
	}()

	out := f.fn.Call(nil)
	if len(out) == 1 && !out[0].IsNil() {
		return script.Classify(out[0].Interface(), "")
	}
	return nil
}

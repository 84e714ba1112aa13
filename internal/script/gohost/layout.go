package gohost

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strconv"

	"github.com/traefik/yaegi/stdlib"
)

// layout is what the syntax tree tells about a script that the evaluated
// values cannot: declaration order, member source text and lines.
type layout struct {
	pkg    string
	vars   []string
	suites map[string]*suiteLayout
}

type suiteLayout struct {
	order   []string
	members map[string]memberLayout
}

type memberLayout struct {
	source string
	line   int
}

func parseLayout(filename string, src []byte) (*layout, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	if err := checkImports(file); err != nil {
		return nil, err
	}

	l := &layout{pkg: file.Name.Name, suites: make(map[string]*suiteLayout)}
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if name.Name == "_" {
					continue
				}
				l.vars = append(l.vars, name.Name)
				if i < len(vs.Values) {
					if lit, ok := vs.Values[i].(*ast.CompositeLit); ok {
						l.suites[name.Name] = suiteFromLiteral(fset, src, lit)
					}
				}
			}
		}
	}

	return l, nil
}

// suiteFromLiteral records string keyed members of a composite literal. The
// source of a member spans from the end of the previous element so comments
// written above a member belong to it.
func suiteFromLiteral(fset *token.FileSet, src []byte, lit *ast.CompositeLit) *suiteLayout {
	s := &suiteLayout{members: make(map[string]memberLayout)}
	start := lit.Lbrace + 1

	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			start = elt.End()
			continue
		}

		key, ok := kv.Key.(*ast.BasicLit)
		if !ok || key.Kind != token.STRING {
			start = elt.End()
			continue
		}
		name, err := strconv.Unquote(key.Value)
		if err != nil {
			start = elt.End()
			continue
		}

		from := fset.Position(start).Offset
		to := fset.Position(kv.Value.End()).Offset
		if _, seen := s.members[name]; !seen {
			s.order = append(s.order, name)
		}
		s.members[name] = memberLayout{
			source: string(src[from:to]),
			line:   fset.Position(kv.Value.Pos()).Line,
		}
		start = elt.End()
	}

	return s
}

// checkImports only lets scripts use the standard library and the unittest
// package.
func checkImports(file *ast.File) error {
	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return fmt.Errorf("import %s: %w", spec.Path.Value, err)
		}
		if importPath == ImportPath {
			continue
		}
		if _, ok := stdlib.Symbols[importPath+"/"+path.Base(importPath)]; !ok {
			return fmt.Errorf("import %q is not available to test scripts", importPath)
		}
	}
	return nil
}

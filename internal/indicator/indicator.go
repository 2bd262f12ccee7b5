// Package indicator holds the catalog of indicator templates a strategy can invoke.
package indicator

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Violation is a broken template invariant found by CheckTemplate.
type Violation struct {
	Code    errors.ErrorCode
	Path    string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// CheckTemplate checks the structural invariants of an indicator template:
// unique variable and parameter names, every export referencing a declared
// variable, every declared line exported exactly once, and parameter defaults
// matching their declared kind and options.
func CheckTemplate(tpl *template.IndicatorTemplate) []Violation {
	var out []Violation

	add := func(code errors.ErrorCode, path, format string, args ...any) {
		out = append(out, Violation{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if tpl.Name == "" {
		add(errors.ErrCodeInvalidTemplate, "name", "indicator name is required")
	}

	params := map[string]bool{}

	for i, p := range tpl.Params {
		path := fmt.Sprintf("params[%d]", i)

		if params[p.Name] {
			add(errors.ErrCodeInvalidTemplate, path, "duplicate parameter %s", p.Name)
		}

		params[p.Name] = true

		switch p.Kind {
		case template.ParamNumber, template.ParamSource, template.ParamAggregation:
		default:
			add(errors.ErrCodeInvalidTemplate, path, "parameter %s has unknown kind %q", p.Name, p.Kind)

			continue
		}

		if p.Kind != template.ParamAggregation && len(p.Options) > 0 {
			add(errors.ErrCodeInvalidTemplate, path, "parameter %s lists methods but is not an aggregation parameter", p.Name)
		}

		for _, m := range p.Options {
			if !m.Valid() {
				add(errors.ErrCodeInvalidTemplate, path, "parameter %s lists unknown method %q", p.Name, m)
			}
		}

		if p.Default.IsNone() {
			continue
		}

		def := p.Default.Unwrap()
		if def.Kind() != p.Kind {
			add(errors.ErrCodeInvalidParameterDefault, path, "default of %s is a %s, expected %s", p.Name, def.Kind(), p.Kind)

			continue
		}

		if m, ok := def.(template.MethodArg); ok && !slices.Contains(SelectableMethods(p), m.Method) {
			add(errors.ErrCodeInvalidParameterDefault, path, "default method %s of %s is not selectable", m.Method, p.Name)
		}
	}

	vars := map[string]bool{}

	for i, v := range tpl.Variables {
		if vars[v.Name] {
			add(errors.ErrCodeDuplicateVariable, fmt.Sprintf("variables[%d]", i), "duplicate variable %s", v.Name)
		}

		vars[v.Name] = true
	}

	exported := map[string]int{}

	for i, e := range tpl.Exports {
		path := fmt.Sprintf("exports[%d]", i)

		if !vars[e.Variable] {
			add(errors.ErrCodeInvalidExport, path, "line %s exports undeclared variable %s", e.Line, e.Variable)
		}

		if !tpl.HasLine(e.Line) {
			add(errors.ErrCodeInvalidExport, path, "export for undeclared line %s", e.Line)
		}

		exported[e.Line]++
	}

	for i, line := range tpl.Lines {
		switch n := exported[line]; {
		case n == 0:
			add(errors.ErrCodeMissingExport, fmt.Sprintf("lines[%d]", i), "line %s has no export", line)
		case n > 1:
			add(errors.ErrCodeInvalidExport, fmt.Sprintf("lines[%d]", i), "line %s is exported %d times", line, n)
		}
	}

	return out
}

// SelectableMethods returns the methods an aggregation parameter accepts.
// An empty option list accepts every method.
func SelectableMethods(p template.ParamDecl) []template.AggregationMethod {
	if len(p.Options) == 0 {
		return template.AggregationMethods
	}

	return p.Options
}

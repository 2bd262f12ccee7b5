package analyzer

import (
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

type color int

const (
	white color = iota
	grey
	black
)

// topologicalOrder lists every declared variable exactly once with the variables
// it references first. Roots are taken in declaration order and neighbours in
// first-reference order. A back edge reports a circular reference on the variable
// it re-enters and is otherwise ignored.
func (r *Result) topologicalOrder(defs []template.VariableDefinition) []string {
	colors := make(map[string]color, len(defs))
	reported := map[string]bool{}
	order := make([]string, 0, len(defs))

	var visit func(name string)
	visit = func(name string) {
		colors[name] = grey

		for _, dep := range r.Graph[name] {
			switch colors[dep] {
			case white:
				visit(dep)
			case grey:
				if !reported[dep] {
					reported[dep] = true
					r.report(errors.ErrCodeCircularReference, "variables."+dep, "circular reference: %s depends on %s", name, dep)
				}
			}
		}

		colors[name] = black
		order = append(order, name)
	}

	for _, def := range defs {
		if _, ok := r.Graph[def.Name]; !ok {
			r.Graph[def.Name] = []string{}
		}
	}

	for _, def := range defs {
		if colors[def.Name] == white {
			visit(def.Name)
		}
	}

	return order
}

// Package analyzer validates templates against an indicator catalog and derives
// the variable dependency graph, its topological order and the set of distinct
// indicator calls and aggregation methods a compile needs.
package analyzer

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Diagnostic is a problem found in a template. Diagnostics are reported, never returned as errors.
type Diagnostic struct {
	Code    errors.ErrorCode
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Path, d.Message)
}

// Argument is an indicator argument after defaults are filled and numbers folded.
type Argument struct {
	Name  string
	Kind  template.ParamKind
	Value template.Argument
}

// Call is one distinct indicator invocation signature.
type Call struct {
	Key  string
	Args []Argument
}

// Arg returns the resolved argument for a parameter.
func (c *Call) Arg(name string) (Argument, bool) {
	for _, a := range c.Args {
		if a.Name == name {
			return a, true
		}
	}

	return Argument{}, false
}

// IndicatorUsage groups the distinct calls made to one indicator.
type IndicatorUsage struct {
	Name string
	// Template is nil when the indicator is not in the catalog.
	Template *template.IndicatorTemplate
	Calls    []*Call
}

// Result is the outcome of analyzing a strategy or indicator template.
type Result struct {
	Strategy  *template.StrategyTemplate
	Indicator *template.IndicatorTemplate
	Catalog   indicator.Catalog

	// UsedIndicators lists indicators in first-use order.
	UsedIndicators []*IndicatorUsage
	// UsedAggregations lists methods in canonical order.
	UsedAggregations []template.AggregationMethod
	// Order lists variables with dependencies before dependents.
	Order []string
	// Graph maps a variable to the variables it references, in first-reference order.
	Graph       map[string][]string
	Diagnostics []Diagnostic

	usage map[string]*IndicatorUsage
	calls map[string]*Call
}

func newResult(catalog indicator.Catalog) *Result {
	return &Result{
		Catalog: catalog,
		Graph:   map[string][]string{},
		usage:   map[string]*IndicatorUsage{},
		calls:   map[string]*Call{},
	}
}

// HasDiagnostics reports whether analysis found any problem.
func (r *Result) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// Usage returns the usage record of an indicator.
func (r *Result) Usage(name string) (*IndicatorUsage, bool) {
	u, ok := r.usage[name]

	return u, ok
}

// Call returns the call recorded under a signature key.
func (r *Result) Call(key string) (*Call, bool) {
	c, ok := r.calls[key]

	return c, ok
}

// Err returns an error carrying every diagnostic, or nil when there are none.
func (r *Result) Err() error {
	if len(r.Diagnostics) == 0 {
		return nil
	}

	first := r.Diagnostics[0]
	if len(r.Diagnostics) == 1 {
		return errors.Newf(errors.ErrCodeValidationFailed, "template has 1 problem: %s", first)
	}

	return errors.Newf(errors.ErrCodeValidationFailed, "template has %d problems, first: %s", len(r.Diagnostics), first)
}

func (r *Result) report(code errors.ErrorCode, path, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Code: code, Path: path, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) useAggregation(m template.AggregationMethod) {
	if m.Valid() && !slices.Contains(r.UsedAggregations, m) {
		r.UsedAggregations = template.SortMethods(append(r.UsedAggregations, m))
	}
}

func (r *Result) recordCall(name string, tpl *template.IndicatorTemplate, key string, args []Argument) {
	u, ok := r.usage[name]
	if !ok {
		u = &IndicatorUsage{Name: name, Template: tpl}
		r.usage[name] = u
		r.UsedIndicators = append(r.UsedIndicators, u)
	}

	if _, seen := r.calls[key]; seen {
		return
	}

	call := &Call{Key: key, Args: args}
	r.calls[key] = call
	u.Calls = append(u.Calls, call)
}

func (r *Result) addEdge(from, to string) {
	if !slices.Contains(r.Graph[from], to) {
		r.Graph[from] = append(r.Graph[from], to)
	}
}

package analyzer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Options tunes an analysis run.
type Options struct {
	// Accumulate seeds the used indicators and aggregations from an earlier result.
	// The earlier result is not modified.
	Accumulate *Result
}

// Analyze validates a strategy and the bodies of every indicator it calls.
func Analyze(tpl *template.StrategyTemplate, catalog indicator.Catalog, opts Options) *Result {
	r := seed(catalog, opts)
	r.Strategy = tpl

	s := &scope{result: r, variables: declared(tpl.Variables), graph: true}
	s.checkDuplicates(tpl.Variables, "variables")

	for _, def := range tpl.Variables {
		s.definition(def, "variables."+def.Name, def.Name)
	}

	s.signals(tpl.Entries, "entries")
	s.signals(tpl.Exits, "exits")

	if err := tpl.Settings.Validate(); err != nil {
		r.report(errors.ErrCodeInvalidTemplate, "settings", "%v", errors.Unwrap(err))
	}

	r.Order = r.topologicalOrder(tpl.Variables)
	r.analyzeUsedBodies()

	return r
}

// AnalyzeIndicator validates an indicator template on its own: structural
// invariants, parameter references and the ordering of its body.
func AnalyzeIndicator(tpl *template.IndicatorTemplate, catalog indicator.Catalog, opts Options) *Result {
	r := seed(catalog, opts)
	r.Indicator = tpl

	for _, v := range indicator.CheckTemplate(tpl) {
		r.report(v.Code, v.Path, "%s", v.Message)
	}

	s := &scope{result: r, indicator: tpl, variables: declared(tpl.Variables), graph: true}

	for _, def := range tpl.Variables {
		s.definition(def, "variables."+def.Name, def.Name)
	}

	for _, p := range tpl.Params {
		if m, ok := p.Default.TakeOr(nil).(template.MethodArg); ok {
			r.useAggregation(m.Method)
		}
	}

	r.Order = r.topologicalOrder(tpl.Variables)

	return r
}

func seed(catalog indicator.Catalog, opts Options) *Result {
	r := newResult(catalog)

	prev := opts.Accumulate
	if prev == nil {
		return r
	}

	r.UsedAggregations = slices.Clone(prev.UsedAggregations)

	for _, u := range prev.UsedIndicators {
		copied := &IndicatorUsage{Name: u.Name, Template: u.Template, Calls: slices.Clone(u.Calls)}
		r.usage[u.Name] = copied
		r.UsedIndicators = append(r.UsedIndicators, copied)
	}

	maps.Copy(r.calls, prev.calls)

	return r
}

func declared(defs []template.VariableDefinition) map[string]bool {
	out := make(map[string]bool, len(defs))
	for _, d := range defs {
		out[d.Name] = true
	}

	return out
}

// analyzeUsedBodies walks the body of every known indicator the strategy calls
// so that literal aggregations inside them are recorded.
func (r *Result) analyzeUsedBodies() {
	for _, u := range r.UsedIndicators {
		if u.Template == nil {
			continue
		}

		s := &scope{result: r, indicator: u.Template, variables: declared(u.Template.Variables)}
		for _, def := range u.Template.Variables {
			s.definition(def, fmt.Sprintf("indicators.%s.variables.%s", u.Name, def.Name), def.Name)
		}
	}
}

// scope is the context a definition is analyzed in.
type scope struct {
	result *Result
	// indicator is nil when analyzing a strategy.
	indicator *template.IndicatorTemplate
	variables map[string]bool
	graph     bool
}

func (s *scope) checkDuplicates(defs []template.VariableDefinition, path string) {
	seen := map[string]bool{}

	for i, d := range defs {
		if d.Name == "" {
			s.result.report(errors.ErrCodeInvalidTemplate, fmt.Sprintf("%s[%d]", path, i), "variable name is required")
		}

		if seen[d.Name] {
			s.result.report(errors.ErrCodeDuplicateVariable, fmt.Sprintf("%s[%d]", path, i), "duplicate variable %s", d.Name)
		}

		seen[d.Name] = true
	}
}

func (s *scope) signals(signals []template.Signal, path string) {
	for i, sig := range signals {
		p := fmt.Sprintf("%s[%d]", path, i)

		if sig.Side != template.SideLong && sig.Side != template.SideShort {
			s.result.report(errors.ErrCodeInvalidSignal, p, "side must be long or short, got %q", sig.Side)
		}

		if sig.Condition == nil {
			s.result.report(errors.ErrCodeInvalidSignal, p, "condition is required")

			continue
		}

		template.WalkCondition(sig.Condition, s.visitor(p, ""))
	}
}

func (s *scope) definition(def template.VariableDefinition, path, owner string) {
	if def.Expression == nil {
		s.result.report(errors.ErrCodeInvalidTemplate, path, "expression is required")
	}

	s.timeframe(def.Timeframe, path+".timeframe")
	template.WalkExpression(def.Expression, s.visitor(path, owner))

	if def.InvalidPeriod.IsSome() {
		template.WalkExpression(def.InvalidPeriod.Unwrap(), s.visitor(path+".invalid_period", owner))
	}

	if def.Fallback != nil {
		s.definition(*def.Fallback, path+".fallback", owner)
	}
}

func (s *scope) timeframe(tf template.TimeframeExpr, path string) {
	switch t := tf.(type) {
	case template.FixedTimeframe:
		if !t.Timeframe.Valid() {
			s.result.report(errors.ErrCodeInvalidTemplate, path, "unknown timeframe %q", t.Timeframe)
		}
	case template.HigherTimeframe:
		if t.Steps < 0 {
			s.result.report(errors.ErrCodeInvalidTemplate, path, "timeframe steps must not be negative")
		}

		s.timeframe(t.Of, path+".of")
	case template.VariableTimeframe:
		if !s.variables[t.Variable] {
			s.result.report(errors.ErrCodeUnknownVariable, path, "unknown variable %s", t.Variable)
		}
	}
}

// visitor returns callbacks that check every node reached below path.
// References found while walking are recorded as dependencies of owner.
func (s *scope) visitor(path, owner string) template.Visitor {
	return template.Visitor{
		Expression: func(expr template.Expression) bool {
			return s.expression(expr, path, owner)
		},
		Condition: func(cond template.Condition) bool {
			s.condition(cond, path)

			return true
		},
	}
}

func (s *scope) expression(expr template.Expression, path, owner string) bool {
	r := s.result

	switch e := expr.(type) {
	case template.VariableRef:
		if !s.variables[e.Name] {
			r.report(errors.ErrCodeUnknownVariable, path, "unknown variable %s", e.Name)
		} else if owner != "" && s.graph {
			r.addEdge(owner, e.Name)
		}

		s.timeframe(e.Timeframe, path)
	case template.PriceRef:
		if !e.Series.Valid() {
			r.report(errors.ErrCodeInvalidTemplate, path, "unknown price series %q", e.Series)
		}

		s.timeframe(e.Timeframe, path)
	case template.ParamRef:
		s.paramRef(e.Name, template.ParamNumber, path)
	case template.SourceRef:
		s.paramRef(e.Name, template.ParamSource, path)
	case template.Aggregation:
		s.aggregation(e, path)
	case template.IndicatorRef:
		if s.indicator != nil {
			r.report(errors.ErrCodeNestedIndicator, path, "indicator %s cannot call indicator %s", s.indicator.Name, e.Name)

			return false
		}

		// arguments of an unknown indicator are not validated
		return s.call(e, path)
	}

	return true
}

func (s *scope) paramRef(name string, want template.ParamKind, path string) {
	if s.indicator == nil {
		s.result.report(errors.ErrCodeUnknownParameter, path, "parameter %s referenced outside an indicator", name)

		return
	}

	decl, ok := s.indicator.Param(name)
	if !ok {
		s.result.report(errors.ErrCodeUnknownParameter, path, "indicator %s has no parameter %s", s.indicator.Name, name)

		return
	}

	if decl.Kind != want {
		s.result.report(errors.ErrCodeUnknownParameter, path, "parameter %s of %s is a %s parameter, not a %s parameter", name, s.indicator.Name, decl.Kind, want)
	}
}

func (s *scope) aggregation(agg template.Aggregation, path string) {
	if !agg.Method.IsParam() {
		if !agg.Method.Method.Valid() {
			s.result.report(errors.ErrCodeInvalidTemplate, path, "unknown aggregation method %q", agg.Method.Method)

			return
		}

		s.result.useAggregation(agg.Method.Method)

		return
	}

	// parameter-driven methods are expanded per instance when lowering
	s.paramRef(agg.Method.Param, template.ParamAggregation, path)
}

func (s *scope) condition(cond template.Condition, path string) {
	switch c := cond.(type) {
	case template.State:
		if c.Bars < 1 {
			s.result.report(errors.ErrCodeInvalidSignal, path, "%s needs at least one bar", c.Kind)
		}
	case template.Continue:
		if c.Bars < 1 {
			s.result.report(errors.ErrCodeInvalidSignal, path, "continue needs at least one bar")
		}
	case template.Change:
		if c.PreconditionBars < 1 || c.ConfirmationBars < 1 {
			s.result.report(errors.ErrCodeInvalidSignal, path, "change needs at least one precondition and one confirmation bar")
		}
	case template.Group:
		if len(c.Conditions) == 0 {
			s.result.report(errors.ErrCodeInvalidSignal, path, "empty %s group", c.Op)
		}
	}
}

// call validates an indicator call and records it. It reports whether the
// walker should descend into the arguments.
func (s *scope) call(ref template.IndicatorRef, path string) bool {
	r := s.result

	tpl, err := r.Catalog.GetIndicator(ref.Name)
	if err != nil {
		r.report(errors.ErrCodeUnknownIndicator, path, "unknown indicator %s", ref.Name)

		key, args := Signature(nil, ref)
		r.recordCall(ref.Name, nil, key, args)

		return false
	}

	bound := map[string]bool{}

	for _, p := range ref.Params {
		ppath := path + ".params." + p.Name

		decl, ok := tpl.Param(p.Name)
		if !ok {
			r.report(errors.ErrCodeUnknownParameter, ppath, "indicator %s has no parameter %s", ref.Name, p.Name)

			continue
		}

		if bound[p.Name] {
			r.report(errors.ErrCodeUnknownParameter, ppath, "parameter %s of %s is bound more than once", p.Name, ref.Name)

			continue
		}

		bound[p.Name] = true

		if p.Value == nil || p.Value.Kind() != decl.Kind {
			got := "nothing"
			if p.Value != nil {
				got = "a " + string(p.Value.Kind())
			}

			r.report(errors.ErrCodeParameterTypeMismatch, ppath, "parameter %s of %s expects a %s, got %s", p.Name, ref.Name, decl.Kind, got)

			continue
		}

		switch a := p.Value.(type) {
		case template.NumberArg:
			if _, ok := template.EvalConstant(a.Value); !ok {
				r.report(errors.ErrCodeNonConstantParameter, ppath, "parameter %s of %s must be constant", p.Name, ref.Name)
			}
		case template.MethodArg:
			if !slices.Contains(indicator.SelectableMethods(decl), a.Method) {
				r.report(errors.ErrCodeParameterTypeMismatch, ppath, "method %q is not selectable for parameter %s of %s", a.Method, p.Name, ref.Name)
			} else {
				r.useAggregation(a.Method)
			}
		}
	}

	for _, decl := range tpl.Params {
		if bound[decl.Name] {
			continue
		}

		if decl.Required {
			r.report(errors.ErrCodeMissingParameter, path, "missing required parameter %s of %s", decl.Name, ref.Name)

			continue
		}

		if m, ok := decl.Default.TakeOr(nil).(template.MethodArg); ok {
			r.useAggregation(m.Method)
		}
	}

	if !tpl.HasLine(ref.Line) {
		r.report(errors.ErrCodeUnknownOutputLine, path, "indicator %s has no output line %q", ref.Name, ref.Line)
	}

	key, args := Signature(tpl, ref)
	r.recordCall(ref.Name, tpl, key, args)

	return true
}

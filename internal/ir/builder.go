package ir

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-codegen/internal/analyzer"
	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"go.uber.org/zap"
)

// Options tunes IR building.
type Options struct {
	// BaseTimeframe is used when the strategy settings name none.
	BaseTimeframe template.Timeframe
}

// InstanceMap binds call signatures to instances for one build.
type InstanceMap map[string]*Instance

// Builder lowers analysis results into programs.
type Builder struct {
	log *logger.Logger
}

// NewBuilder creates a builder logging through log.
func NewBuilder(log *logger.Logger) *Builder {
	return &Builder{log: log.Named("ir")}
}

// Build lowers an analyzed strategy. It does not look at diagnostics; callers
// gate on them before building. Any tree shape the lowering does not support is
// returned as an error and no program is produced.
func (b *Builder) Build(result *analyzer.Result, opts Options) (*Program, error) {
	if result == nil || result.Strategy == nil {
		return nil, errors.New(errors.ErrCodeUnsupportedExpression, "Build: analysis result holds no strategy")
	}

	tpl := result.Strategy

	base := tpl.Settings.Environment.Timeframe
	if base == "" {
		base = opts.BaseTimeframe
	}

	if !base.Valid() {
		return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "Build: invalid base timeframe %q", base)
	}

	program := &Program{
		BaseTimeframe: base,
		Strategy: &Strategy{
			Name:     tpl.Name,
			Settings: tpl.Settings,
		},
	}

	instances, err := b.resolveInstances(result, program)
	if err != nil {
		return nil, err
	}

	l := &lowerer{
		program:   program,
		result:    result,
		instances: instances,
		defs:      definitions(tpl.Variables),
		timeframe: base,
	}

	for _, inst := range program.Strategy.Instances {
		if err := l.instanceArgs(inst, result); err != nil {
			return nil, err
		}
	}

	for _, name := range result.Order {
		def, ok := l.defs[name]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "Build: ordered variable %s is not defined", name)
		}

		v, err := l.variable(*def, "variables."+name)
		if err != nil {
			return nil, err
		}

		program.Strategy.Variables = append(program.Strategy.Variables, v)
	}

	if program.Strategy.Entries, err = l.signals(tpl.Entries, "entries"); err != nil {
		return nil, err
	}

	if program.Strategy.Exits, err = l.signals(tpl.Exits, "exits"); err != nil {
		return nil, err
	}

	for _, usage := range result.UsedIndicators {
		def, err := b.lowerIndicator(usage, program)
		if err != nil {
			return nil, err
		}

		program.Indicators = append(program.Indicators, def)
	}

	b.summarize(program)

	b.log.Debug("built program",
		zap.String("strategy", tpl.Name),
		zap.String("base_timeframe", string(base)),
		zap.Int("instances", len(program.Strategy.Instances)),
		zap.Int("indicators", len(program.Indicators)),
	)

	return program, nil
}

// resolveInstances assigns ids <name>_<n> in first-use order.
func (b *Builder) resolveInstances(result *analyzer.Result, program *Program) (InstanceMap, error) {
	instances := InstanceMap{}

	for _, usage := range result.UsedIndicators {
		if usage.Template == nil {
			return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "Build: indicator %s is not in the catalog", usage.Name)
		}

		for i, call := range usage.Calls {
			inst := &Instance{
				ID:        fmt.Sprintf("%s_%d", usage.Name, i+1),
				Indicator: usage.Name,
				Key:       call.Key,
			}

			instances[call.Key] = inst
			program.Strategy.Instances = append(program.Strategy.Instances, inst)
		}
	}

	return instances, nil
}

func (b *Builder) lowerIndicator(usage *analyzer.IndicatorUsage, program *Program) (*IndicatorDefinition, error) {
	tpl := usage.Template

	def := &IndicatorDefinition{
		Name:   tpl.Name,
		Params: tpl.Params,
		Lines:  tpl.Lines,
	}

	for _, line := range tpl.Lines {
		variable, _ := tpl.ExportFor(line)
		def.Exports = append(def.Exports, template.Export{Line: line, Variable: variable})
	}

	l := &lowerer{
		program:   program,
		indicator: tpl,
		defs:      definitions(tpl.Variables),
		timeframe: program.BaseTimeframe,
		methods:   boundMethods(usage),
	}

	b.warnForwardReferences(tpl)

	for _, v := range tpl.Variables {
		lowered, err := l.variable(v, fmt.Sprintf("indicators.%s.variables.%s", tpl.Name, v.Name))
		if err != nil {
			return nil, err
		}

		def.Variables = append(def.Variables, lowered)
	}

	var exprs []Expression
	for _, v := range def.Variables {
		WalkVariable(v, Visitor{Expression: func(e Expression) bool {
			exprs = append(exprs, e)

			return false
		}})
	}

	def.Aggregations = methodsIn(exprs, nil)
	def.Series = seriesIn(exprs, nil, true)

	return def, nil
}

// warnForwardReferences logs body variables that read a sibling declared after them.
// Bodies are lowered in declared order, so such a read sees the sibling's previous bar.
func (b *Builder) warnForwardReferences(tpl *template.IndicatorTemplate) {
	position := map[string]int{}
	for i, v := range tpl.Variables {
		position[v.Name] = i
	}

	for i, v := range tpl.Variables {
		template.WalkVariable(v, template.Visitor{
			Expression: func(e template.Expression) bool {
				ref, ok := e.(template.VariableRef)
				if !ok {
					return true
				}

				if j, ok := position[ref.Name]; ok && j >= i && ref.Name != v.Name {
					b.log.Warn("indicator variable reads a later sibling",
						zap.String("indicator", tpl.Name),
						zap.String("variable", v.Name),
						zap.String("reference", ref.Name),
					)
				}

				return true
			},
		})
	}
}

// boundMethods lists, per aggregation parameter, the selectable methods bound by
// at least one call, in declared option order.
func boundMethods(usage *analyzer.IndicatorUsage) map[string][]template.AggregationMethod {
	out := map[string][]template.AggregationMethod{}

	for _, p := range usage.Template.Params {
		if p.Kind != template.ParamAggregation {
			continue
		}

		bound := map[template.AggregationMethod]bool{}

		for _, call := range usage.Calls {
			if arg, ok := call.Arg(p.Name); ok {
				if m, ok := arg.Value.(template.MethodArg); ok {
					bound[m.Method] = true
				}
			}
		}

		for _, m := range indicator.SelectableMethods(p) {
			if bound[m] {
				out[p.Name] = append(out[p.Name], m)
			}
		}
	}

	return out
}

func definitions(defs []template.VariableDefinition) map[string]*template.VariableDefinition {
	out := make(map[string]*template.VariableDefinition, len(defs))
	for i := range defs {
		out[defs[i].Name] = &defs[i]
	}

	return out
}

// summarize fills the program-wide method, timeframe and series lists.
func (b *Builder) summarize(program *Program) {
	var exprs []Expression
	var conds []Condition

	collect := Visitor{Expression: func(e Expression) bool {
		exprs = append(exprs, e)

		return false
	}}

	for _, v := range program.Strategy.Variables {
		WalkVariable(v, collect)
	}

	for _, inst := range program.Strategy.Instances {
		for _, a := range inst.Args {
			exprs = append(exprs, a.Value)
		}
	}

	for _, s := range slices.Concat(program.Strategy.Entries, program.Strategy.Exits) {
		conds = append(conds, s.Condition)
	}

	methods := methodsIn(exprs, conds)
	program.Series = seriesIn(exprs, conds, false)

	for _, def := range program.Indicators {
		methods = append(methods, def.Aggregations...)

		for _, v := range def.Variables {
			WalkVariable(v, collect)
		}
	}

	program.Aggregations = template.SortMethods(methods)

	higher := map[template.Timeframe]int{}
	v := Visitor{Expression: func(e Expression) bool {
		if ref, ok := e.(BarRef); ok {
			switch s := ref.Source.(type) {
			case PriceSource:
				if s.Ratio > 1 {
					higher[s.Timeframe] = s.Ratio
				}
			case VariableSource:
				if s.Ratio > 1 {
					higher[s.Timeframe] = s.Ratio
				}
			}
		}

		return true
	}}

	for _, e := range exprs {
		Walk(e, v)
	}

	for _, c := range conds {
		WalkCondition(c, v)
	}

	for _, tf := range template.Timeframes {
		if ratio, ok := higher[tf]; ok {
			program.Timeframes = append(program.Timeframes, TimeframeUse{Timeframe: tf, Ratio: ratio})
		}
	}
}

func methodsIn(exprs []Expression, conds []Condition) []template.AggregationMethod {
	used := Aggregations(exprs, conds)

	var out []template.AggregationMethod

	for _, m := range template.AggregationMethods {
		if used[string(m)] {
			out = append(out, m)
		}
	}

	return out
}

// seriesIn lists base-timeframe price series read below the roots. Composite
// series are listed with their components when expand is set.
func seriesIn(exprs []Expression, conds []Condition, expand bool) []template.PriceSeries {
	used := map[template.PriceSeries]bool{}
	v := Visitor{Expression: func(e Expression) bool {
		if ref, ok := e.(BarRef); ok {
			if s, ok := ref.Source.(PriceSource); ok && s.Ratio == 1 {
				used[s.Series] = true

				if expand {
					for _, c := range s.Series.Components() {
						used[c] = true
					}
				}
			}
		}

		return true
	}}

	for _, e := range exprs {
		Walk(e, v)
	}

	for _, c := range conds {
		WalkCondition(c, v)
	}

	var out []template.PriceSeries

	for _, s := range template.PriceSeriesList {
		if used[s] {
			out = append(out, s)
		}
	}

	return out
}

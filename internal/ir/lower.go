package ir

import (
	"fmt"
	"slices"

	"github.com/rxtech-lab/argo-codegen/internal/analyzer"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// lowerer converts one scope, either the strategy or an indicator body.
type lowerer struct {
	program   *Program
	result    *analyzer.Result
	instances InstanceMap
	// indicator is nil in the strategy scope.
	indicator *template.IndicatorTemplate
	defs      map[string]*template.VariableDefinition
	methods   map[string][]template.AggregationMethod
	// timeframe is the default timeframe of references in the variable being lowered.
	timeframe template.Timeframe
}

func (l *lowerer) variable(def template.VariableDefinition, path string) (*Variable, error) {
	tf, _, err := l.resolveTimeframe(def.Timeframe, path, map[string]bool{def.Name: true})
	if err != nil {
		return nil, err
	}

	saved := l.timeframe
	l.timeframe = tf

	defer func() { l.timeframe = saved }()

	expr, err := l.expression(def.Expression, path)
	if err != nil {
		return nil, err
	}

	v := &Variable{Name: def.Name, Expr: expr, Timeframe: tf}

	if def.InvalidPeriod.IsSome() {
		invalid, err := l.expression(def.InvalidPeriod.Unwrap(), path+".invalid_period")
		if err != nil {
			return nil, err
		}

		v.InvalidPeriod = Fold(invalid)
	}

	if def.Fallback != nil {
		fallback, err := l.variable(*def.Fallback, path+".fallback")
		if err != nil {
			return nil, err
		}

		v.Fallback = fallback
	}

	return v, nil
}

func (l *lowerer) signals(signals []template.Signal, path string) ([]Signal, error) {
	var out []Signal

	for i, s := range signals {
		cond, err := l.condition(s.Condition, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}

		out = append(out, Signal{Name: s.Name, Side: s.Side, Condition: cond})
	}

	return out, nil
}

// instanceArgs lowers the resolved arguments of an instance's call.
func (l *lowerer) instanceArgs(inst *Instance, result *analyzer.Result) error {
	call, ok := result.Call(inst.Key)
	if !ok {
		return errors.Newf(errors.ErrCodeUnresolvedInstance, "Build: no call recorded for instance %s", inst.ID)
	}

	l.result = result
	path := "instances." + inst.ID

	for _, a := range call.Args {
		var value Expression

		switch v := a.Value.(type) {
		case template.NumberArg:
			lowered, err := l.expression(v.Value, path+"."+a.Name)
			if err != nil {
				return err
			}

			value = Fold(lowered)
		case template.MethodArg:
			value = MethodLiteral{Method: v.Method}
		case template.SourceArg:
			lowered, err := l.expression(v.Value, path+"."+a.Name)
			if err != nil {
				return err
			}

			if _, ok := lowered.(BarRef); !ok {
				return errors.Newf(errors.ErrCodeUnsupportedSource, "%s.%s: source argument must be a series", path, a.Name)
			}

			value = lowered
		default:
			return errors.Newf(errors.ErrCodeUnsupportedArgument, "%s.%s: unsupported argument %T", path, a.Name, a.Value)
		}

		inst.Args = append(inst.Args, Arg{Name: a.Name, Kind: a.Kind, Value: value})
	}

	return nil
}

func (l *lowerer) shiftAndFallback(ref barSpec, path string) (Expression, Expression, error) {
	var shift, fallback Expression = Constant{}, Constant{}

	if ref.shift != nil {
		s, err := l.expression(ref.shift, path+".shift")
		if err != nil {
			return nil, nil, err
		}

		shift = Fold(s)
	}

	if ref.fallback != nil {
		f, err := l.expression(ref.fallback, path+".fallback")
		if err != nil {
			return nil, nil, err
		}

		fallback = f
	}

	return shift, fallback, nil
}

type barSpec struct {
	shift    template.Expression
	fallback template.Expression
}

func (l *lowerer) expression(expr template.Expression, path string) (Expression, error) {
	switch e := expr.(type) {
	case template.Constant:
		return Constant{Value: e.Value}, nil
	case template.ParamRef:
		if l.indicator == nil {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "%s: parameter %s referenced outside an indicator", path, e.Name)
		}

		return ParamRef{Name: e.Name}, nil
	case template.SourceRef:
		if l.indicator == nil {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "%s: source %s referenced outside an indicator", path, e.Name)
		}

		return BarRef{Source: SourceParam{Name: e.Name}, Shift: Constant{}, Fallback: Constant{}}, nil
	case template.VariableRef:
		if _, ok := l.defs[e.Name]; !ok {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "%s: unknown variable %s", path, e.Name)
		}

		tf, ratio, err := l.resolveTimeframe(e.Timeframe, path, map[string]bool{})
		if err != nil {
			return nil, err
		}

		ref := BarRef{Source: VariableSource{Name: e.Name, Timeframe: tf, Ratio: ratio}, Shift: Constant{}, Fallback: Constant{}}
		if e.Kind == template.ValueScalar {
			return ref, nil
		}

		ref.Shift, ref.Fallback, err = l.shiftAndFallback(barSpec{shift: e.Shift.TakeOr(nil), fallback: e.Fallback.TakeOr(nil)}, path)
		if err != nil {
			return nil, err
		}

		return ref, nil
	case template.PriceRef:
		tf, ratio, err := l.resolveTimeframe(e.Timeframe, path, map[string]bool{})
		if err != nil {
			return nil, err
		}

		ref := BarRef{Source: PriceSource{Series: e.Series, Timeframe: tf, Ratio: ratio}}

		ref.Shift, ref.Fallback, err = l.shiftAndFallback(barSpec{shift: e.Shift.TakeOr(nil), fallback: e.Fallback.TakeOr(nil)}, path)
		if err != nil {
			return nil, err
		}

		return ref, nil
	case template.IndicatorRef:
		return l.indicatorRef(e, path)
	case template.Aggregation:
		return l.aggregation(e, path)
	case template.UnaryOp:
		operand, err := l.expression(e.Operand, path)
		if err != nil {
			return nil, err
		}

		return Unary{Op: e.Op, Operand: operand}, nil
	case template.BinaryOp:
		left, err := l.expression(e.Left, path)
		if err != nil {
			return nil, err
		}

		right, err := l.expression(e.Right, path)
		if err != nil {
			return nil, err
		}

		return Binary{Op: e.Op, Left: left, Right: right}, nil
	case template.Ternary:
		cond, err := l.condition(e.Condition, path)
		if err != nil {
			return nil, err
		}

		then, err := l.expression(e.Then, path)
		if err != nil {
			return nil, err
		}

		els, err := l.expression(e.Else, path)
		if err != nil {
			return nil, err
		}

		return Ternary{Condition: cond, Then: then, Else: els}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "%s: unsupported expression %T", path, expr)
	}
}

func (l *lowerer) indicatorRef(ref template.IndicatorRef, path string) (Expression, error) {
	if l.indicator != nil {
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "%s: indicator %s called inside indicator %s", path, ref.Name, l.indicator.Name)
	}

	var tpl *template.IndicatorTemplate
	if l.result != nil {
		if usage, ok := l.result.Usage(ref.Name); ok {
			tpl = usage.Template
		}
	}

	if tpl == nil {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "%s: indicator %s is not in the catalog", path, ref.Name)
	}

	key, _ := analyzer.Signature(tpl, ref)

	inst, ok := l.instances[key]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnresolvedInstance, "%s: no instance for call %s", path, key)
	}

	index := slices.Index(tpl.Lines, ref.Line)
	if index < 0 {
		return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "%s: indicator %s has no output line %q", path, ref.Name, ref.Line)
	}

	return BarRef{
		Source:   InstanceSource{InstanceID: inst.ID, Indicator: ref.Name, Line: ref.Line, LineIndex: index},
		Shift:    Constant{},
		Fallback: Constant{},
	}, nil
}

func (l *lowerer) aggregation(agg template.Aggregation, path string) (Expression, error) {
	lowered, err := l.expression(agg.Source, path+".source")
	if err != nil {
		return nil, err
	}

	source, ok := lowered.(BarRef)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "%s: aggregation source must be a series, got %T", path, lowered)
	}

	period, err := l.expression(agg.Period, path+".period")
	if err != nil {
		return nil, err
	}

	var fallback Expression

	if agg.Fallback.IsSome() {
		if fallback, err = l.expression(agg.Fallback.Unwrap(), path+".fallback"); err != nil {
			return nil, err
		}
	}

	build := func(m template.AggregationMethod) Aggregation {
		return Aggregation{Method: m, Source: source, Period: Fold(period), Fallback: fallback}
	}

	if !agg.Method.IsParam() {
		return build(agg.Method.Method), nil
	}

	if l.indicator == nil {
		return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "%s: method parameter %s referenced outside an indicator", path, agg.Method.Param)
	}

	methods := l.methods[agg.Method.Param]
	if len(methods) == 0 {
		return nil, errors.Newf(errors.ErrCodeMalformedDispatch, "%s: no method is bound to parameter %s", path, agg.Method.Param)
	}

	// One link per bound method, falling back to the first.
	var chain Expression = build(methods[0])

	for i := len(methods) - 1; i >= 0; i-- {
		chain = Ternary{
			Condition: Comparison{Op: template.CompareEQ, Left: ParamRef{Name: agg.Method.Param}, Right: MethodLiteral{Method: methods[i]}},
			Then:      build(methods[i]),
			Else:      chain,
		}
	}

	return chain, nil
}

func (l *lowerer) condition(cond template.Condition, path string) (Condition, error) {
	switch c := cond.(type) {
	case template.Comparison:
		left, err := l.expression(c.Left, path)
		if err != nil {
			return nil, err
		}

		right, err := l.expression(c.Right, path)
		if err != nil {
			return nil, err
		}

		return Comparison{Op: c.Op, Left: left, Right: right}, nil
	case template.Cross:
		left, err := l.expression(c.Left, path)
		if err != nil {
			return nil, err
		}

		right, err := l.expression(c.Right, path)
		if err != nil {
			return nil, err
		}

		return Cross{Direction: c.Direction, Left: left, Right: right}, nil
	case template.State:
		operand, err := l.expression(c.Operand, path)
		if err != nil {
			return nil, err
		}

		return State{Kind: c.Kind, Operand: operand, Bars: c.Bars}, nil
	case template.Change:
		inner, err := l.condition(c.Inner, path)
		if err != nil {
			return nil, err
		}

		return Change{To: c.To, Inner: inner, PreconditionBars: c.PreconditionBars, ConfirmationBars: c.ConfirmationBars}, nil
	case template.Continue:
		inner, err := l.condition(c.Inner, path)
		if err != nil {
			return nil, err
		}

		return Continue{Persist: c.Persist, Inner: inner, Bars: c.Bars}, nil
	case template.Group:
		out := Group{Op: c.Op}

		for i, sub := range c.Conditions {
			lowered, err := l.condition(sub, fmt.Sprintf("%s.conditions[%d]", path, i))
			if err != nil {
				return nil, err
			}

			out.Conditions = append(out.Conditions, lowered)
		}

		return out, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedCondition, "%s: unsupported condition %T", path, cond)
	}
}

// resolveTimeframe returns a timeframe and the number of base bars per bar.
// A nil expression resolves to the default of the variable being lowered.
func (l *lowerer) resolveTimeframe(tfe template.TimeframeExpr, path string, visiting map[string]bool) (template.Timeframe, int, error) {
	base := l.program.BaseTimeframe

	var tf template.Timeframe

	switch t := tfe.(type) {
	case nil:
		tf = l.timeframe
		if tf == "" {
			tf = base
		}
	case template.FixedTimeframe:
		tf = t.Timeframe
	case template.HigherTimeframe:
		of := base
		if t.Of != nil {
			resolved, _, err := l.resolveTimeframe(t.Of, path, visiting)
			if err != nil {
				return "", 0, err
			}

			of = resolved
		}

		higher, err := of.Higher(t.Steps)
		if err != nil {
			return "", 0, errors.Wrap(errors.ErrCodeInvalidTimeframe, path, err)
		}

		tf = higher
	case template.VariableTimeframe:
		if visiting[t.Variable] {
			return "", 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "%s: timeframe of %s refers back to itself", path, t.Variable)
		}

		def, ok := l.defs[t.Variable]
		if !ok {
			return "", 0, errors.Newf(errors.ErrCodeUnresolvedReference, "%s: timeframe refers to unknown variable %s", path, t.Variable)
		}

		visiting[t.Variable] = true

		if def.Timeframe == nil {
			tf = base
		} else {
			resolved, _, err := l.resolveTimeframe(def.Timeframe, path, visiting)
			if err != nil {
				return "", 0, err
			}

			tf = resolved
		}
	default:
		return "", 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "%s: unsupported timeframe %T", path, tfe)
	}

	if !tf.Valid() {
		return "", 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "%s: unknown timeframe %q", path, tf)
	}

	if tf.Minutes() < base.Minutes() || tf.Minutes()%base.Minutes() != 0 {
		return "", 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "%s: timeframe %s is not a whole multiple of base %s", path, tf, base)
	}

	return tf, tf.Minutes() / base.Minutes(), nil
}

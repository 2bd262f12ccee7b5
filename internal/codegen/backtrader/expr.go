package backtrader

import (
	"fmt"

	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

var self = Name{ID: "self"}

// attr builds a dotted attribute chain.
func attr(x Expr, names ...string) Expr {
	for _, n := range names {
		x = Attr{Value: x, Name: n}
	}

	return x
}

func call(fn Expr, args ...Expr) Call {
	return Call{Func: fn, Args: args}
}

func bt(names ...string) Expr {
	return attr(Name{ID: "bt"}, names...)
}

// framework primitive per aggregation method; median has a generated helper.
var primitives = map[template.AggregationMethod]Expr{
	template.MethodSMA:    bt("indicators", "SimpleMovingAverage"),
	template.MethodEMA:    bt("indicators", "ExponentialMovingAverage"),
	template.MethodRMA:    bt("indicators", "SmoothedMovingAverage"),
	template.MethodSMMA:   bt("indicators", "SmoothedMovingAverage"),
	template.MethodLWMA:   bt("indicators", "WeightedMovingAverage"),
	template.MethodSum:    bt("indicators", "SumN"),
	template.MethodStdDev: bt("indicators", "StandardDeviation"),
	template.MethodMax:    bt("indicators", "Highest"),
	template.MethodMin:    bt("indicators", "Lowest"),
	template.MethodMedian: Name{ID: medianClass},
	template.MethodMAD:    bt("indicators", "MeanDeviation"),
}

const medianClass = "RollingMedian"

var compareOps = map[template.CompareOp]string{
	template.CompareGT: ">", template.CompareGE: ">=",
	template.CompareLT: "<", template.CompareLE: "<=",
	template.CompareEQ: "==", template.CompareNE: "!=",
}

func variableAttr(name string) string { return "v_" + name }

func instanceAttr(id string) string { return "ind_" + id }

func sourceAttr(name string) string { return "src_" + name }

func priceAttr(s template.PriceSeries) string { return "px_" + string(s) }

// scope lowers expressions for one class. def is nil for the strategy class.
type scope struct {
	program *ir.Program
	def     *ir.IndicatorDefinition
	// hoisted aggregations read from next(), strategy only.
	hoisted *[]hoist
	// constants holds variables that read no bars; references inline them.
	constants map[string]Expr
}

func (s *scope) constant(src ir.Source) (Expr, bool) {
	v, ok := src.(ir.VariableSource)
	if !ok {
		return nil, false
	}

	c, ok := s.constants[v.Name]

	return c, ok
}

type hoist struct {
	name  string
	key   string
	value Expr
}

// static reports whether expr reads no bars, so it can be evaluated once.
func static(expr ir.Expression) bool {
	ok := true

	ir.Walk(expr, ir.Visitor{Expression: func(e ir.Expression) bool {
		switch e.(type) {
		case ir.BarRef, ir.Aggregation:
			ok = false
		}

		return ok
	}})

	return ok
}

func staticCondition(cond ir.Condition) bool {
	ok := true

	ir.WalkCondition(cond, ir.Visitor{Expression: func(e ir.Expression) bool {
		switch e.(type) {
		case ir.BarRef, ir.Aggregation:
			ok = false
		}

		return ok
	}})

	return ok
}

// intValue renders a bar count or period as an int.
func (s *scope) intValue(e ir.Expression) (Expr, error) {
	if n, ok := ir.ConstantInt(e); ok {
		return Int{Value: n}, nil
	}

	v, err := s.value(e)
	if err != nil {
		return nil, err
	}

	return call(Name{ID: "int"}, v), nil
}

func (s *scope) timeframeData(tf template.Timeframe) (Expr, int, error) {
	if s.def != nil {
		return nil, 0, errors.Newf(errors.ErrCodeUnsupportedSource, "backtrader: indicator %s reads timeframe %s", s.def.Name, tf)
	}

	for i, use := range s.program.Timeframes {
		if use.Timeframe == tf {
			return Subscript{Value: attr(self, "datas"), Index: Int{Value: i + 1}}, use.Ratio, nil
		}
	}

	return nil, 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "backtrader: timeframe %s has no resampled feed", tf)
}

// line returns the line object a source refers to and how many of its own bars
// one base bar shift spans.
func (s *scope) line(src ir.Source) (Expr, int, error) {
	switch x := src.(type) {
	case ir.PriceSource:
		if x.Ratio > 1 {
			data, ratio, err := s.timeframeData(x.Timeframe)
			if err != nil {
				return nil, 0, err
			}

			if x.Series.Composite() {
				return call(Name{ID: "_series"}, data, Str{Value: string(x.Series)}), ratio, nil
			}

			return attr(data, string(x.Series)), ratio, nil
		}

		if x.Series.Composite() {
			if s.def == nil {
				return attr(self, priceAttr(x.Series)), 1, nil
			}

			return call(Name{ID: "_series"}, attr(self, "data"), Str{Value: string(x.Series)}), 1, nil
		}

		return attr(self, "data", string(x.Series)), 1, nil
	case ir.VariableSource:
		return attr(self, variableAttr(x.Name)), 1, nil
	case ir.SourceParam:
		return attr(self, sourceAttr(x.Name)), 1, nil
	case ir.InstanceSource:
		return attr(self, instanceAttr(x.InstanceID), "lines", x.Line), 1, nil
	default:
		return nil, 0, errors.Newf(errors.ErrCodeUnsupportedSource, "backtrader: unsupported source %T", src)
	}
}

// offset converts a base-bar shift into bars of the source, as a positive count.
func (s *scope) offset(ref ir.BarRef, ratio int) (Expr, bool, error) {
	if ir.IsZero(ref.Shift) {
		return Int{}, true, nil
	}

	if n, ok := ir.ConstantInt(ref.Shift); ok {
		if v, isVar := ref.Source.(ir.VariableSource); isVar && v.Ratio > 1 {
			return Int{Value: (n / v.Ratio) * v.Ratio}, n < v.Ratio, nil
		}

		return Int{Value: n / ratio}, n/ratio == 0, nil
	}

	shift, err := s.intValue(ref.Shift)
	if err != nil {
		return nil, false, err
	}

	// a higher-timeframe variable changes only every Ratio base bars
	if v, isVar := ref.Source.(ir.VariableSource); isVar && v.Ratio > 1 {
		r := Int{Value: v.Ratio}

		return BinOp{Op: "*", Left: BinOp{Op: "//", Left: shift, Right: r}, Right: r}, false, nil
	}

	if ratio > 1 {
		return BinOp{Op: "//", Left: shift, Right: Int{Value: ratio}}, false, nil
	}

	return shift, false, nil
}

func negate(e Expr) Expr {
	if n, ok := e.(Int); ok {
		return Int{Value: -n.Value}
	}

	return UnaryOp{Op: "-", Operand: e}
}

// lineRef is a bar reference in declarative __init__ code: a delayed line.
// Fallbacks do not apply; the framework's minimum period covers missing bars.
func (s *scope) lineRef(ref ir.BarRef) (Expr, error) {
	if c, ok := s.constant(ref.Source); ok {
		return c, nil
	}

	line, ratio, err := s.line(ref.Source)
	if err != nil {
		return nil, err
	}

	off, zero, err := s.offset(ref, ratio)
	if err != nil {
		return nil, err
	}

	if !zero {
		line = call(line, negate(off))
	}

	// lines of a resampled feed are coupled to the base clock
	if ratio > 1 {
		line = call(line)
	}

	return line, nil
}

// valueRef is a bar reference in next(): a subscript with a non-positive index.
func (s *scope) valueRef(ref ir.BarRef) (Expr, error) {
	if c, ok := s.constant(ref.Source); ok {
		return c, nil
	}

	line, ratio, err := s.line(ref.Source)
	if err != nil {
		return nil, err
	}

	off, _, err := s.offset(ref, ratio)
	if err != nil {
		return nil, err
	}

	return Subscript{Value: line, Index: negate(off)}, nil
}

// aggregation builds the framework indicator for agg.
func (s *scope) aggregation(agg ir.Aggregation) (Expr, error) {
	fn, ok := primitives[agg.Method]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "backtrader: unsupported aggregation %s", agg.Method)
	}

	if _, ok := s.constant(agg.Source.Source); ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "backtrader: %s over a constant variable", agg.Method)
	}

	src, err := s.lineRef(agg.Source)
	if err != nil {
		return nil, err
	}

	period, err := s.intValue(agg.Period)
	if err != nil {
		return nil, err
	}

	return Call{Func: fn, Args: []Expr{src}, Keywords: []Keyword{{Name: "period", Value: period}}}, nil
}

// lineExpr lowers an expression into declarative line arithmetic.
func (s *scope) lineExpr(e ir.Expression) (Expr, error) {
	if static(e) {
		return s.value(e)
	}

	switch x := e.(type) {
	case ir.BarRef:
		return s.lineRef(x)
	case ir.Aggregation:
		return s.aggregation(x)
	case ir.Unary:
		operand, err := s.lineExpr(x.Operand)
		if err != nil {
			return nil, err
		}

		if x.Op == template.UnaryAbs {
			return call(Name{ID: "abs"}, operand), nil
		}

		return UnaryOp{Op: "-", Operand: operand}, nil
	case ir.Binary:
		left, err := s.lineExpr(x.Left)
		if err != nil {
			return nil, err
		}

		right, err := s.lineExpr(x.Right)
		if err != nil {
			return nil, err
		}

		switch x.Op {
		case template.BinaryMax:
			return call(bt("Max"), left, right), nil
		case template.BinaryMin:
			return call(bt("Min"), left, right), nil
		case template.BinaryDiv:
			if static(x.Right) {
				return BinOp{Op: "/", Left: left, Right: right}, nil
			}

			return Call{Func: bt("DivByZero"), Args: []Expr{left, right}, Keywords: []Keyword{{Name: "zero", Value: Num{}}}}, nil
		default:
			return BinOp{Op: string(x.Op), Left: left, Right: right}, nil
		}
	case ir.Ternary:
		then, err := s.lineExpr(x.Then)
		if err != nil {
			return nil, err
		}

		els, err := s.lineExpr(x.Else)
		if err != nil {
			return nil, err
		}

		if staticCondition(x.Condition) {
			cond, err := s.valueCondition(x.Condition)
			if err != nil {
				return nil, err
			}

			return IfExp{Cond: cond, Then: then, Else: els}, nil
		}

		cond, err := s.lineCondition(x.Condition)
		if err != nil {
			return nil, err
		}

		return call(bt("If"), cond, then, els), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "backtrader: unsupported expression %T", e)
	}
}

// lineCondition lowers a condition into a boolean line.
func (s *scope) lineCondition(c ir.Condition) (Expr, error) {
	d, err := ir.Desugar(c)
	if err != nil {
		return nil, err
	}

	return s.lineDesugared(d)
}

func (s *scope) lineDesugared(c ir.Condition) (Expr, error) {
	switch x := c.(type) {
	case ir.Comparison:
		left, err := s.lineExpr(x.Left)
		if err != nil {
			return nil, err
		}

		right, err := s.lineExpr(x.Right)
		if err != nil {
			return nil, err
		}

		return BinOp{Op: compareOps[x.Op], Left: left, Right: right}, nil
	case ir.Group:
		fn := bt("And")
		if x.Op == template.GroupOr {
			fn = bt("Or")
		}

		var args []Expr

		for _, sub := range x.Conditions {
			e, err := s.lineDesugared(sub)
			if err != nil {
				return nil, err
			}

			args = append(args, e)
		}

		if len(args) == 1 {
			return args[0], nil
		}

		if len(args) == 0 {
			return Bool{Value: x.Op == template.GroupAnd}, nil
		}

		return call(fn, args...), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedCondition, "backtrader: unsupported condition %T", c)
	}
}

// value lowers an expression evaluated bar by bar in next(), or once when static.
func (s *scope) value(e ir.Expression) (Expr, error) {
	switch x := e.(type) {
	case ir.Constant:
		return Num{Value: x.Value}, nil
	case ir.ParamRef:
		if s.def == nil {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "backtrader: parameter %s outside an indicator", x.Name)
		}

		return attr(self, "p", x.Name), nil
	case ir.MethodLiteral:
		return Str{Value: string(x.Method)}, nil
	case ir.BarRef:
		return s.valueRef(x)
	case ir.Aggregation:
		return s.hoist(x)
	case ir.Unary:
		operand, err := s.value(x.Operand)
		if err != nil {
			return nil, err
		}

		if x.Op == template.UnaryAbs {
			return call(Name{ID: "abs"}, operand), nil
		}

		return UnaryOp{Op: "-", Operand: operand}, nil
	case ir.Binary:
		left, err := s.value(x.Left)
		if err != nil {
			return nil, err
		}

		right, err := s.value(x.Right)
		if err != nil {
			return nil, err
		}

		switch x.Op {
		case template.BinaryMax:
			return call(Name{ID: "max"}, left, right), nil
		case template.BinaryMin:
			return call(Name{ID: "min"}, left, right), nil
		default:
			return BinOp{Op: string(x.Op), Left: left, Right: right}, nil
		}
	case ir.Ternary:
		cond, err := s.valueCondition(x.Condition)
		if err != nil {
			return nil, err
		}

		then, err := s.value(x.Then)
		if err != nil {
			return nil, err
		}

		els, err := s.value(x.Else)
		if err != nil {
			return nil, err
		}

		return IfExp{Cond: cond, Then: then, Else: els}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "backtrader: unsupported expression %T", e)
	}
}

// hoist moves an aggregation read in next() into an __init__ attribute.
// Identical aggregations share one attribute.
func (s *scope) hoist(agg ir.Aggregation) (Expr, error) {
	if s.hoisted == nil {
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "backtrader: aggregation %s read outside the strategy", agg.Method)
	}

	built, err := s.aggregation(agg)
	if err != nil {
		return nil, err
	}

	key := RenderExpr(built)

	name := ""
	for _, h := range *s.hoisted {
		if h.key == key {
			name = h.name
		}
	}

	if name == "" {
		name = fmt.Sprintf("agg_%s_%d", agg.Method, len(*s.hoisted)+1)
		*s.hoisted = append(*s.hoisted, hoist{name: name, key: key, value: built})
	}

	return Subscript{Value: attr(self, name), Index: Int{}}, nil
}

func (s *scope) valueCondition(c ir.Condition) (Expr, error) {
	d, err := ir.Desugar(c)
	if err != nil {
		return nil, err
	}

	return s.valueDesugared(d)
}

func (s *scope) valueDesugared(c ir.Condition) (Expr, error) {
	switch x := c.(type) {
	case ir.Comparison:
		left, err := s.value(x.Left)
		if err != nil {
			return nil, err
		}

		right, err := s.value(x.Right)
		if err != nil {
			return nil, err
		}

		return BinOp{Op: compareOps[x.Op], Left: left, Right: right}, nil
	case ir.Group:
		op := "and"
		if x.Op == template.GroupOr {
			op = "or"
		}

		var values []Expr

		for _, sub := range x.Conditions {
			e, err := s.valueDesugared(sub)
			if err != nil {
				return nil, err
			}

			values = append(values, e)
		}

		switch len(values) {
		case 0:
			return Bool{Value: x.Op == template.GroupAnd}, nil
		case 1:
			return values[0], nil
		default:
			return BoolOp{Op: op, Values: values}, nil
		}
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedCondition, "backtrader: unsupported condition %T", c)
	}
}

func className(name string) string {
	return render.Pascal(render.Snake(name))
}

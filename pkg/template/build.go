package template

import "github.com/moznion/go-optional"

// Num returns a constant expression.
func Num(v float64) Expression {
	return Constant{Value: v}
}

// Param returns a reference to an indicator parameter.
func Param(name string) Expression {
	return ParamRef{Name: name}
}

// Price returns the current value of a price series.
func Price(series PriceSeries) Expression {
	return PriceRef{Series: series}
}

// PriceAt returns a price series shifted back by shift bars with a fallback.
func PriceAt(series PriceSeries, shift int, fallback float64) Expression {
	return PriceRef{
		Series:   series,
		Shift:    optional.Some(Num(float64(shift))),
		Fallback: optional.Some(Num(fallback)),
	}
}

// Var returns the current value of a variable.
func Var(name string) Expression {
	return VariableRef{Name: name, Kind: ValueScalar}
}

// VarAt returns a variable shifted back by shift bars with a fallback.
func VarAt(name string, shift int, fallback float64) Expression {
	return VariableRef{
		Name:     name,
		Kind:     ValueArray,
		Shift:    optional.Some(Num(float64(shift))),
		Fallback: optional.Some(Num(fallback)),
	}
}

// Src returns a reference to a source parameter.
func Src(name string) Expression {
	return SourceRef{Name: name}
}

// Call invokes an indicator and selects one of its lines.
func Call(name, line string, params ...ParamBinding) Expression {
	return IndicatorRef{Name: name, Params: params, Line: line}
}

// NumParam binds a number argument.
func NumParam(name string, v Expression) ParamBinding {
	return ParamBinding{Name: name, Value: NumberArg{Value: v}}
}

// SrcParam binds a source argument.
func SrcParam(name string, v Expression) ParamBinding {
	return ParamBinding{Name: name, Value: SourceArg{Value: v}}
}

// MethodParam binds an aggregation method argument.
func MethodParam(name string, m AggregationMethod) ParamBinding {
	return ParamBinding{Name: name, Value: MethodArg{Method: m}}
}

// Agg aggregates source over period bars with a literal method.
func Agg(method AggregationMethod, source, period Expression) Expression {
	return Aggregation{Method: MethodSpec{Method: method}, Source: source, Period: period}
}

// AggBy aggregates source over period bars with the method selected by param.
func AggBy(param string, source, period Expression) Expression {
	return Aggregation{Method: MethodSpec{Param: param}, Source: source, Period: period}
}

func Add(l, r Expression) Expression { return BinaryOp{Op: BinaryAdd, Left: l, Right: r} }
func Sub(l, r Expression) Expression { return BinaryOp{Op: BinarySub, Left: l, Right: r} }
func Mul(l, r Expression) Expression { return BinaryOp{Op: BinaryMul, Left: l, Right: r} }
func Div(l, r Expression) Expression { return BinaryOp{Op: BinaryDiv, Left: l, Right: r} }
func Max(l, r Expression) Expression { return BinaryOp{Op: BinaryMax, Left: l, Right: r} }
func Min(l, r Expression) Expression { return BinaryOp{Op: BinaryMin, Left: l, Right: r} }
func Neg(x Expression) Expression    { return UnaryOp{Op: UnaryNeg, Operand: x} }
func Abs(x Expression) Expression    { return UnaryOp{Op: UnaryAbs, Operand: x} }

// If selects then or otherwise by cond.
func If(cond Condition, then, otherwise Expression) Expression {
	return Ternary{Condition: cond, Then: then, Else: otherwise}
}

func Gt(l, r Expression) Condition { return Comparison{Op: CompareGT, Left: l, Right: r} }
func Ge(l, r Expression) Condition { return Comparison{Op: CompareGE, Left: l, Right: r} }
func Lt(l, r Expression) Condition { return Comparison{Op: CompareLT, Left: l, Right: r} }
func Le(l, r Expression) Condition { return Comparison{Op: CompareLE, Left: l, Right: r} }
func Eq(l, r Expression) Condition { return Comparison{Op: CompareEQ, Left: l, Right: r} }
func Ne(l, r Expression) Condition { return Comparison{Op: CompareNE, Left: l, Right: r} }

func CrossesOver(l, r Expression) Condition  { return Cross{Direction: CrossOver, Left: l, Right: r} }
func CrossesUnder(l, r Expression) Condition { return Cross{Direction: CrossUnder, Left: l, Right: r} }

func Rising(x Expression, bars int) Condition {
	return State{Kind: StateRising, Operand: x, Bars: bars}
}
func Falling(x Expression, bars int) Condition {
	return State{Kind: StateFalling, Operand: x, Bars: bars}
}

// All holds when every condition holds.
func All(conds ...Condition) Condition { return Group{Op: GroupAnd, Conditions: conds} }

// Any holds when at least one condition holds.
func Any(conds ...Condition) Condition { return Group{Op: GroupOr, Conditions: conds} }

// Define returns a plain variable definition.
func Define(name string, expr Expression) VariableDefinition {
	return VariableDefinition{Name: name, Expression: expr}
}

// Package template holds the declarative model authored by users: expressions,
// conditions, and the indicator and strategy templates built from them.
//
// Every sum type is a sealed interface; a type switch over one of them that
// reaches its default case indicates a shape the caller does not support.
package template

import "github.com/moznion/go-optional"

// Expression is a scalar or series-valued expression.
type Expression interface {
	expression()
}

// Constant is a numeric literal.
type Constant struct {
	Value float64
}

// ParamRef reads a declared indicator parameter.
type ParamRef struct {
	Name string
}

// ValueKind selects how a variable is read.
type ValueKind string

const (
	// ValueArray reads the variable's history, optionally shifted.
	ValueArray ValueKind = "array"
	// ValueScalar reads the current value only.
	ValueScalar ValueKind = "scalar"
)

// VariableRef reads another variable definition.
type VariableRef struct {
	Name      string
	Kind      ValueKind
	Shift     optional.Option[Expression]
	Fallback  optional.Option[Expression]
	Timeframe TimeframeExpr
}

// PriceRef reads a price series.
type PriceRef struct {
	Series    PriceSeries
	Shift     optional.Option[Expression]
	Fallback  optional.Option[Expression]
	Timeframe TimeframeExpr
}

// SourceRef is a placeholder for a source parameter of an indicator template.
// It is bound to the caller-supplied expression when the indicator is instantiated.
type SourceRef struct {
	Name string
}

// IndicatorRef invokes an indicator from the catalog and selects one of its lines.
type IndicatorRef struct {
	Name   string
	Params []ParamBinding
	Line   string
}

// ParamBinding binds an argument to a declared parameter by name.
type ParamBinding struct {
	Name  string
	Value Argument
}

// MethodSpec selects an aggregation method. Exactly one of Method and Param is set:
// Method for a literal method, Param for a method chosen by an aggregation-type parameter.
type MethodSpec struct {
	Method AggregationMethod
	Param  string
}

// IsParam reports whether the method is chosen by a parameter.
func (m MethodSpec) IsParam() bool {
	return m.Param != ""
}

// Aggregation is a rolling computation of Source over Period bars.
type Aggregation struct {
	Method   MethodSpec
	Source   Expression
	Period   Expression
	Fallback optional.Option[Expression]
}

// UnaryOperator is a one-operand arithmetic operator.
type UnaryOperator string

const (
	UnaryNeg UnaryOperator = "-"
	UnaryAbs UnaryOperator = "abs"
)

// UnaryOp applies a unary operator.
type UnaryOp struct {
	Op      UnaryOperator
	Operand Expression
}

// BinaryOperator is a two-operand arithmetic operator.
type BinaryOperator string

const (
	BinaryAdd BinaryOperator = "+"
	BinarySub BinaryOperator = "-"
	BinaryMul BinaryOperator = "*"
	BinaryDiv BinaryOperator = "/"
	BinaryMax BinaryOperator = "max"
	BinaryMin BinaryOperator = "min"
)

// BinaryOp applies a binary operator.
type BinaryOp struct {
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

// Ternary selects Then when Condition holds and Else otherwise.
type Ternary struct {
	Condition Condition
	Then      Expression
	Else      Expression
}

func (Constant) expression()     {}
func (ParamRef) expression()     {}
func (VariableRef) expression()  {}
func (PriceRef) expression()     {}
func (SourceRef) expression()    {}
func (IndicatorRef) expression() {}
func (Aggregation) expression()  {}
func (UnaryOp) expression()      {}
func (BinaryOp) expression()     {}
func (Ternary) expression()      {}

// Argument is the value bound to an indicator parameter.
type Argument interface {
	argument()
	// Kind returns the parameter kind this argument can bind to.
	Kind() ParamKind
}

// NumberArg binds a numeric expression.
type NumberArg struct {
	Value Expression
}

// SourceArg binds a series expression to a source parameter.
type SourceArg struct {
	Value Expression
}

// MethodArg binds an aggregation method to an aggregation-type parameter.
type MethodArg struct {
	Method AggregationMethod
}

func (NumberArg) argument() {}
func (SourceArg) argument() {}
func (MethodArg) argument() {}

func (NumberArg) Kind() ParamKind { return ParamNumber }
func (SourceArg) Kind() ParamKind { return ParamSource }
func (MethodArg) Kind() ParamKind { return ParamAggregation }

// Package ir is the canonical intermediate representation consumed by the
// backend emitters. Every indicator call is bound to an instance, every bar
// reference carries an explicit shift and fallback, and every aggregation has a
// concrete method.
package ir

import "github.com/rxtech-lab/argo-codegen/pkg/template"

// Expression is a lowered expression.
type Expression interface {
	irExpression()
}

// Constant is a numeric literal.
type Constant struct {
	Value float64
}

// ParamRef reads an indicator parameter at runtime. For aggregation parameters
// the value is the method code.
type ParamRef struct {
	Name string
}

// MethodLiteral is the runtime code of an aggregation method.
type MethodLiteral struct {
	Method template.AggregationMethod
}

// Source is the series a BarRef reads.
type Source interface {
	irSource()
}

// PriceSource is a price series on a timeframe. Ratio is the number of base bars
// per bar of Timeframe and is 1 on the base timeframe.
type PriceSource struct {
	Series    template.PriceSeries
	Timeframe template.Timeframe
	Ratio     int
}

// VariableSource is the buffer of a variable in the same scope.
type VariableSource struct {
	Name      string
	Timeframe template.Timeframe
	Ratio     int
}

// SourceParam is the series bound to a source parameter of an indicator.
type SourceParam struct {
	Name string
}

// InstanceSource is one output line of an indicator instance.
type InstanceSource struct {
	InstanceID string
	Indicator  string
	Line       string
	// LineIndex is the position of Line in the indicator's declared lines.
	LineIndex int
}

// BarRef reads Source Shift bars back, yielding Fallback when that bar does not exist.
type BarRef struct {
	Source   Source
	Shift    Expression
	Fallback Expression
}

// Aggregation applies Method over Period bars of Source. Fallback is nil when the
// template gave none.
type Aggregation struct {
	Method   template.AggregationMethod
	Source   BarRef
	Period   Expression
	Fallback Expression
}

// Unary applies a unary operator.
type Unary struct {
	Op      template.UnaryOperator
	Operand Expression
}

// Binary applies a binary operator.
type Binary struct {
	Op    template.BinaryOperator
	Left  Expression
	Right Expression
}

// Ternary selects Then or Else by Condition.
type Ternary struct {
	Condition Condition
	Then      Expression
	Else      Expression
}

func (Constant) irExpression()      {}
func (ParamRef) irExpression()      {}
func (MethodLiteral) irExpression() {}
func (BarRef) irExpression()        {}
func (Aggregation) irExpression()   {}
func (Unary) irExpression()         {}
func (Binary) irExpression()        {}
func (Ternary) irExpression()       {}

func (PriceSource) irSource()    {}
func (VariableSource) irSource() {}
func (SourceParam) irSource()    {}
func (InstanceSource) irSource() {}

// Condition is a lowered condition.
type Condition interface {
	irCondition()
}

type Comparison struct {
	Op    template.CompareOp
	Left  Expression
	Right Expression
}

type Cross struct {
	Direction template.CrossDirection
	Left      Expression
	Right     Expression
}

type State struct {
	Kind    template.StateKind
	Operand Expression
	Bars    int
}

type Change struct {
	To               template.ChangeKind
	Inner            Condition
	PreconditionBars int
	ConfirmationBars int
}

type Continue struct {
	Persist bool
	Inner   Condition
	Bars    int
}

type Group struct {
	Op         template.GroupOp
	Conditions []Condition
}

func (Comparison) irCondition() {}
func (Cross) irCondition()      {}
func (State) irCondition()      {}
func (Change) irCondition()     {}
func (Continue) irCondition()   {}
func (Group) irCondition()      {}

// Variable is a lowered variable definition.
type Variable struct {
	Name string
	Expr Expression
	// InvalidPeriod is nil when every bar is valid.
	InvalidPeriod Expression
	Fallback      *Variable
	Timeframe     template.Timeframe
}

// Signal is a lowered entry or exit.
type Signal struct {
	Name      string
	Side      template.Side
	Condition Condition
}

// Arg is an argument passed to an indicator instance.
type Arg struct {
	Name  string
	Kind  template.ParamKind
	Value Expression
}

// Instance is one parameter-bound use of an indicator.
type Instance struct {
	ID        string
	Indicator string
	// Key is the call signature the instance was created for.
	Key  string
	Args []Arg
}

// Arg returns the argument bound to a parameter.
func (i *Instance) Arg(name string) (Arg, bool) {
	for _, a := range i.Args {
		if a.Name == name {
			return a, true
		}
	}

	return Arg{}, false
}

// Strategy is the lowered strategy.
type Strategy struct {
	Name string
	// Variables are in dependency order.
	Variables []*Variable
	Entries   []Signal
	Exits     []Signal
	Instances []*Instance
	Settings  template.Settings
}

// IndicatorDefinition is one lowered indicator shared by all its instances.
type IndicatorDefinition struct {
	Name   string
	Params []template.ParamDecl
	Lines  []string
	// Exports maps each line, in declared line order, to its variable.
	Exports []template.Export
	// Variables are in declared order.
	Variables []*Variable
	// Aggregations lists the methods the body uses, in canonical order.
	Aggregations []template.AggregationMethod
	// Series lists the price series the body reads directly, in canonical order.
	Series []template.PriceSeries
}

// Param returns the declaration of a parameter.
func (d *IndicatorDefinition) Param(name string) (template.ParamDecl, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}

	return template.ParamDecl{}, false
}

// ExportFor returns the variable behind a line.
func (d *IndicatorDefinition) ExportFor(line string) string {
	for _, e := range d.Exports {
		if e.Line == line {
			return e.Variable
		}
	}

	return ""
}

// TimeframeUse is a higher timeframe referenced by the program.
type TimeframeUse struct {
	Timeframe template.Timeframe
	Ratio     int
}

// Program is everything an emitter needs.
type Program struct {
	BaseTimeframe template.Timeframe
	// Aggregations lists every method used anywhere, in canonical order.
	Aggregations []template.AggregationMethod
	// Timeframes lists higher timeframes in ascending order.
	Timeframes []TimeframeUse
	// Series lists the price series the strategy reads on the base timeframe,
	// including instance source arguments, in canonical order.
	Series     []template.PriceSeries
	Strategy   *Strategy
	Indicators []*IndicatorDefinition
}

// Indicator returns the definition of an indicator.
func (p *Program) Indicator(name string) (*IndicatorDefinition, bool) {
	for _, d := range p.Indicators {
		if d.Name == name {
			return d, true
		}
	}

	return nil, false
}

// Instance returns an instance by id.
func (p *Program) Instance(id string) (*Instance, bool) {
	for _, inst := range p.Strategy.Instances {
		if inst.ID == id {
			return inst, true
		}
	}

	return nil, false
}

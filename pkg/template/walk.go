package template

// Visitor receives every node reached by WalkExpression and WalkCondition.
// Returning false from a callback stops descent into that node's children.
// Nil callbacks are skipped and descent continues.
type Visitor struct {
	Expression func(Expression) bool
	Condition  func(Condition) bool
	// Argument is called for every indicator parameter binding before its value is walked.
	Argument func(IndicatorRef, ParamBinding) bool
}

// WalkExpression visits expr and its children depth-first, parents first.
func WalkExpression(expr Expression, v Visitor) {
	if expr == nil {
		return
	}

	if v.Expression != nil && !v.Expression(expr) {
		return
	}

	switch e := expr.(type) {
	case VariableRef:
		walkOptional(e.Shift.TakeOr(nil), v)
		walkOptional(e.Fallback.TakeOr(nil), v)
	case PriceRef:
		walkOptional(e.Shift.TakeOr(nil), v)
		walkOptional(e.Fallback.TakeOr(nil), v)
	case IndicatorRef:
		for _, p := range e.Params {
			if v.Argument != nil && !v.Argument(e, p) {
				continue
			}

			switch a := p.Value.(type) {
			case NumberArg:
				WalkExpression(a.Value, v)
			case SourceArg:
				WalkExpression(a.Value, v)
			}
		}
	case Aggregation:
		WalkExpression(e.Source, v)
		WalkExpression(e.Period, v)
		walkOptional(e.Fallback.TakeOr(nil), v)
	case UnaryOp:
		WalkExpression(e.Operand, v)
	case BinaryOp:
		WalkExpression(e.Left, v)
		WalkExpression(e.Right, v)
	case Ternary:
		WalkCondition(e.Condition, v)
		WalkExpression(e.Then, v)
		WalkExpression(e.Else, v)
	}
}

// WalkCondition visits cond and every expression and condition below it.
func WalkCondition(cond Condition, v Visitor) {
	if cond == nil {
		return
	}

	if v.Condition != nil && !v.Condition(cond) {
		return
	}

	switch c := cond.(type) {
	case Comparison:
		WalkExpression(c.Left, v)
		WalkExpression(c.Right, v)
	case Cross:
		WalkExpression(c.Left, v)
		WalkExpression(c.Right, v)
	case State:
		WalkExpression(c.Operand, v)
	case Change:
		WalkCondition(c.Inner, v)
	case Continue:
		WalkCondition(c.Inner, v)
	case Group:
		for _, sub := range c.Conditions {
			WalkCondition(sub, v)
		}
	}
}

// WalkVariable visits the expression, guard and fallback chain of a definition.
func WalkVariable(def VariableDefinition, v Visitor) {
	WalkExpression(def.Expression, v)
	walkOptional(def.InvalidPeriod.TakeOr(nil), v)

	if def.Fallback != nil {
		WalkVariable(*def.Fallback, v)
	}
}

func walkOptional(expr Expression, v Visitor) {
	if expr != nil {
		WalkExpression(expr, v)
	}
}

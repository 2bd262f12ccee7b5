package ir

// Visitor receives the nodes reached by Walk and WalkCondition. Returning false
// stops descent below the node. Nil callbacks are skipped.
type Visitor struct {
	Expression func(Expression) bool
	Condition  func(Condition) bool
}

// Walk visits expr and its children depth-first, parents first.
func Walk(expr Expression, v Visitor) {
	if expr == nil {
		return
	}

	if v.Expression != nil && !v.Expression(expr) {
		return
	}

	switch e := expr.(type) {
	case BarRef:
		Walk(e.Shift, v)
		Walk(e.Fallback, v)
	case Aggregation:
		Walk(e.Source, v)
		Walk(e.Period, v)
		Walk(e.Fallback, v)
	case Unary:
		Walk(e.Operand, v)
	case Binary:
		Walk(e.Left, v)
		Walk(e.Right, v)
	case Ternary:
		WalkCondition(e.Condition, v)
		Walk(e.Then, v)
		Walk(e.Else, v)
	}
}

// WalkCondition visits cond and everything below it.
func WalkCondition(cond Condition, v Visitor) {
	if cond == nil {
		return
	}

	if v.Condition != nil && !v.Condition(cond) {
		return
	}

	switch c := cond.(type) {
	case Comparison:
		Walk(c.Left, v)
		Walk(c.Right, v)
	case Cross:
		Walk(c.Left, v)
		Walk(c.Right, v)
	case State:
		Walk(c.Operand, v)
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

// WalkVariable visits a variable's expression, guard and fallback chain.
func WalkVariable(variable *Variable, v Visitor) {
	for ; variable != nil; variable = variable.Fallback {
		Walk(variable.Expr, v)
		Walk(variable.InvalidPeriod, v)
	}
}

// Aggregations returns the methods used below the given roots.
func Aggregations(exprs []Expression, conds []Condition) map[string]bool {
	used := map[string]bool{}
	v := Visitor{
		Expression: func(e Expression) bool {
			if agg, ok := e.(Aggregation); ok {
				used[string(agg.Method)] = true
			}

			return true
		},
	}

	for _, e := range exprs {
		Walk(e, v)
	}

	for _, c := range conds {
		WalkCondition(c, v)
	}

	return used
}

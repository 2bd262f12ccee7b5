package ir

import (
	"math"

	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// Shift moves every bar reference below expr k bars further into the past.
// Aggregation windows move with their source.
func Shift(expr Expression, k int) Expression {
	if k == 0 || expr == nil {
		return expr
	}

	switch e := expr.(type) {
	case BarRef:
		e.Shift = Fold(Binary{Op: template.BinaryAdd, Left: e.Shift, Right: Constant{Value: float64(k)}})

		return e
	case Aggregation:
		e.Source = Shift(e.Source, k).(BarRef)

		return e
	case Unary:
		e.Operand = Shift(e.Operand, k)

		return e
	case Binary:
		e.Left = Shift(e.Left, k)
		e.Right = Shift(e.Right, k)

		return e
	case Ternary:
		e.Condition = ShiftCondition(e.Condition, k)
		e.Then = Shift(e.Then, k)
		e.Else = Shift(e.Else, k)

		return e
	default:
		return expr
	}
}

// ShiftCondition moves every bar reference below cond k bars into the past.
func ShiftCondition(cond Condition, k int) Condition {
	if k == 0 || cond == nil {
		return cond
	}

	switch c := cond.(type) {
	case Comparison:
		c.Left = Shift(c.Left, k)
		c.Right = Shift(c.Right, k)

		return c
	case Cross:
		c.Left = Shift(c.Left, k)
		c.Right = Shift(c.Right, k)

		return c
	case State:
		c.Operand = Shift(c.Operand, k)

		return c
	case Change:
		c.Inner = ShiftCondition(c.Inner, k)

		return c
	case Continue:
		c.Inner = ShiftCondition(c.Inner, k)

		return c
	case Group:
		out := make([]Condition, len(c.Conditions))
		for i, sub := range c.Conditions {
			out[i] = ShiftCondition(sub, k)
		}

		c.Conditions = out

		return c
	default:
		return cond
	}
}

// Desugar rewrites cross, state, change and continue conditions into comparisons
// and groups over shifted operands. The result contains only Comparison and Group.
func Desugar(cond Condition) (Condition, error) {
	switch c := cond.(type) {
	case Comparison:
		return c, nil
	case Cross:
		now, before := template.CompareGT, template.CompareLE
		if c.Direction == template.CrossUnder {
			now, before = template.CompareLT, template.CompareGE
		}

		return Group{Op: template.GroupAnd, Conditions: []Condition{
			Comparison{Op: now, Left: c.Left, Right: c.Right},
			Comparison{Op: before, Left: Shift(c.Left, 1), Right: Shift(c.Right, 1)},
		}}, nil
	case State:
		op := template.CompareGT
		if c.Kind == template.StateFalling {
			op = template.CompareLT
		}

		out := make([]Condition, 0, c.Bars)
		for k := 0; k < c.Bars; k++ {
			out = append(out, Comparison{Op: op, Left: Shift(c.Operand, k), Right: Shift(c.Operand, k+1)})
		}

		return group(out), nil
	case Change:
		inner, err := Desugar(c.Inner)
		if err != nil {
			return nil, err
		}

		negatedInner, err := Negate(inner)
		if err != nil {
			return nil, err
		}

		now, before := inner, negatedInner
		if c.To == template.ChangeToFalse {
			now, before = before, now
		}

		out := make([]Condition, 0, c.ConfirmationBars+c.PreconditionBars)
		for k := 0; k < c.ConfirmationBars; k++ {
			out = append(out, ShiftCondition(now, k))
		}

		for k := c.ConfirmationBars; k < c.ConfirmationBars+c.PreconditionBars; k++ {
			out = append(out, ShiftCondition(before, k))
		}

		return group(out), nil
	case Continue:
		inner, err := Desugar(c.Inner)
		if err != nil {
			return nil, err
		}

		if !c.Persist {
			if inner, err = Negate(inner); err != nil {
				return nil, err
			}
		}

		out := make([]Condition, 0, c.Bars)
		for k := 0; k < c.Bars; k++ {
			out = append(out, ShiftCondition(inner, k))
		}

		return group(out), nil
	case Group:
		out := make([]Condition, 0, len(c.Conditions))

		for _, sub := range c.Conditions {
			d, err := Desugar(sub)
			if err != nil {
				return nil, err
			}

			out = append(out, d)
		}

		return Group{Op: c.Op, Conditions: out}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedCondition, "Desugar: unsupported condition %T", cond)
	}
}

func group(conds []Condition) Condition {
	if len(conds) == 1 {
		return conds[0]
	}

	return Group{Op: template.GroupAnd, Conditions: conds}
}

var negated = map[template.CompareOp]template.CompareOp{
	template.CompareGT: template.CompareLE,
	template.CompareGE: template.CompareLT,
	template.CompareLT: template.CompareGE,
	template.CompareLE: template.CompareGT,
	template.CompareEQ: template.CompareNE,
	template.CompareNE: template.CompareEQ,
}

// Negate returns the logical complement of a condition. Comparisons flip their
// operator, groups follow De Morgan's laws and anything else is desugared first.
func Negate(cond Condition) (Condition, error) {
	switch c := cond.(type) {
	case Comparison:
		c.Op = negated[c.Op]

		return c, nil
	case Group:
		op := template.GroupOr
		if c.Op == template.GroupOr {
			op = template.GroupAnd
		}

		out := make([]Condition, len(c.Conditions))

		for i, sub := range c.Conditions {
			n, err := Negate(sub)
			if err != nil {
				return nil, err
			}

			out[i] = n
		}

		return Group{Op: op, Conditions: out}, nil
	default:
		d, err := Desugar(cond)
		if err != nil {
			return nil, err
		}

		return Negate(d)
	}
}

// Fold evaluates arithmetic over constants and drops identity operations on shifts.
func Fold(expr Expression) Expression {
	switch e := expr.(type) {
	case Unary:
		e.Operand = Fold(e.Operand)
		if c, ok := e.Operand.(Constant); ok {
			if e.Op == template.UnaryAbs {
				return Constant{Value: math.Abs(c.Value)}
			}

			return Constant{Value: -c.Value}
		}

		return e
	case Binary:
		e.Left = Fold(e.Left)
		e.Right = Fold(e.Right)

		l, lok := e.Left.(Constant)
		r, rok := e.Right.(Constant)

		if lok && rok {
			switch e.Op {
			case template.BinaryAdd:
				return Constant{Value: l.Value + r.Value}
			case template.BinarySub:
				return Constant{Value: l.Value - r.Value}
			case template.BinaryMul:
				return Constant{Value: l.Value * r.Value}
			case template.BinaryDiv:
				if r.Value != 0 {
					return Constant{Value: l.Value / r.Value}
				}
			case template.BinaryMax:
				return Constant{Value: math.Max(l.Value, r.Value)}
			case template.BinaryMin:
				return Constant{Value: math.Min(l.Value, r.Value)}
			}
		}

		if e.Op == template.BinaryAdd && rok && r.Value == 0 {
			return e.Left
		}

		if e.Op == template.BinaryAdd && lok && l.Value == 0 {
			return e.Right
		}

		return e
	default:
		return expr
	}
}

// IsZero reports whether expr is the literal constant 0.
func IsZero(expr Expression) bool {
	c, ok := expr.(Constant)

	return ok && c.Value == 0
}

// ConstantInt returns the integer value of a constant expression.
func ConstantInt(expr Expression) (int, bool) {
	c, ok := Fold(expr).(Constant)
	if !ok || c.Value != math.Trunc(c.Value) {
		return 0, false
	}

	return int(c.Value), true
}

package template

import "math"

// EvalConstant evaluates an expression built only from constants and arithmetic.
// It reports false when the expression reads any series, parameter or variable,
// or when the result is not a finite number.
func EvalConstant(expr Expression) (float64, bool) {
	v, ok := evalConstant(expr)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

func evalConstant(expr Expression) (float64, bool) {
	switch e := expr.(type) {
	case Constant:
		return e.Value, true
	case UnaryOp:
		v, ok := evalConstant(e.Operand)
		if !ok {
			return 0, false
		}

		if e.Op == UnaryAbs {
			return math.Abs(v), true
		}

		return -v, true
	case BinaryOp:
		l, ok := evalConstant(e.Left)
		if !ok {
			return 0, false
		}

		r, ok := evalConstant(e.Right)
		if !ok {
			return 0, false
		}

		switch e.Op {
		case BinaryAdd:
			return l + r, true
		case BinarySub:
			return l - r, true
		case BinaryMul:
			return l * r, true
		case BinaryDiv:
			if r == 0 {
				return 0, false
			}

			return l / r, true
		case BinaryMax:
			return math.Max(l, r), true
		case BinaryMin:
			return math.Min(l, r), true
		}
	case Ternary:
		cmp, ok := e.Condition.(Comparison)
		if !ok {
			return 0, false
		}

		l, ok := evalConstant(cmp.Left)
		if !ok {
			return 0, false
		}

		r, ok := evalConstant(cmp.Right)
		if !ok {
			return 0, false
		}

		if Compare(cmp.Op, l, r) {
			return evalConstant(e.Then)
		}

		return evalConstant(e.Else)
	}

	return 0, false
}

// Compare applies a comparison operator to two numbers.
func Compare(op CompareOp, l, r float64) bool {
	switch op {
	case CompareGT:
		return l > r
	case CompareGE:
		return l >= r
	case CompareLT:
		return l < r
	case CompareLE:
		return l <= r
	case CompareEQ:
		return l == r
	case CompareNE:
		return l != r
	default:
		return false
	}
}

package template

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatNumber renders a float with the fewest digits that round-trip.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatExpression renders an expression as compact, deterministic text.
// The output is stable across runs and is used in keys and messages.
func FormatExpression(expr Expression) string {
	var b strings.Builder
	writeExpression(&b, expr)

	return b.String()
}

// FormatCondition renders a condition as compact, deterministic text.
func FormatCondition(cond Condition) string {
	var b strings.Builder
	writeCondition(&b, cond)

	return b.String()
}

// FormatTimeframe renders a timeframe expression.
func FormatTimeframe(tf TimeframeExpr) string {
	switch t := tf.(type) {
	case nil:
		return ""
	case FixedTimeframe:
		return string(t.Timeframe)
	case HigherTimeframe:
		base := "base"
		if t.Of != nil {
			base = FormatTimeframe(t.Of)
		}

		return fmt.Sprintf("%s+%d", base, t.Steps)
	case VariableTimeframe:
		return "tf(" + t.Variable + ")"
	default:
		return fmt.Sprintf("%T", tf)
	}
}

// FormatArgument renders an indicator argument.
func FormatArgument(arg Argument) string {
	switch a := arg.(type) {
	case nil:
		return "_"
	case NumberArg:
		return FormatExpression(a.Value)
	case SourceArg:
		return FormatExpression(a.Value)
	case MethodArg:
		return string(a.Method)
	default:
		return fmt.Sprintf("%T", arg)
	}
}

func writeSeriesSuffix(b *strings.Builder, shift, fallback Expression, tf TimeframeExpr) {
	if tf != nil {
		b.WriteString("@")
		b.WriteString(FormatTimeframe(tf))
	}

	if shift != nil {
		b.WriteString("[")
		writeExpression(b, shift)
		b.WriteString("]")
	}

	if fallback != nil {
		b.WriteString(" ?? ")
		writeExpression(b, fallback)
	}
}

func writeExpression(b *strings.Builder, expr Expression) {
	switch e := expr.(type) {
	case nil:
		b.WriteString("<nil>")
	case Constant:
		b.WriteString(FormatNumber(e.Value))
	case ParamRef:
		b.WriteString("param." + e.Name)
	case SourceRef:
		b.WriteString("source." + e.Name)
	case PriceRef:
		b.WriteString(string(e.Series))
		writeSeriesSuffix(b, e.Shift.TakeOr(nil), e.Fallback.TakeOr(nil), e.Timeframe)
	case VariableRef:
		b.WriteString("$" + e.Name)
		writeSeriesSuffix(b, e.Shift.TakeOr(nil), e.Fallback.TakeOr(nil), e.Timeframe)
	case IndicatorRef:
		b.WriteString(e.Name)
		b.WriteString("(")

		for i, p := range e.Params {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(p.Name)
			b.WriteString("=")
			b.WriteString(FormatArgument(p.Value))
		}

		b.WriteString(").")
		b.WriteString(e.Line)
	case Aggregation:
		if e.Method.IsParam() {
			b.WriteString("param." + e.Method.Param)
		} else {
			b.WriteString(string(e.Method.Method))
		}

		b.WriteString("(")
		writeExpression(b, e.Source)
		b.WriteString(", ")
		writeExpression(b, e.Period)
		b.WriteString(")")

		if e.Fallback.IsSome() {
			b.WriteString(" ?? ")
			writeExpression(b, e.Fallback.Unwrap())
		}
	case UnaryOp:
		if e.Op == UnaryAbs {
			b.WriteString("abs(")
			writeExpression(b, e.Operand)
			b.WriteString(")")

			return
		}

		b.WriteString("-")
		writeExpression(b, e.Operand)
	case BinaryOp:
		if e.Op == BinaryMax || e.Op == BinaryMin {
			b.WriteString(string(e.Op))
			b.WriteString("(")
			writeExpression(b, e.Left)
			b.WriteString(", ")
			writeExpression(b, e.Right)
			b.WriteString(")")

			return
		}

		b.WriteString("(")
		writeExpression(b, e.Left)
		b.WriteString(" " + string(e.Op) + " ")
		writeExpression(b, e.Right)
		b.WriteString(")")
	case Ternary:
		b.WriteString("(")
		writeCondition(b, e.Condition)
		b.WriteString(" ? ")
		writeExpression(b, e.Then)
		b.WriteString(" : ")
		writeExpression(b, e.Else)
		b.WriteString(")")
	default:
		fmt.Fprintf(b, "%T", expr)
	}
}

func writeCondition(b *strings.Builder, cond Condition) {
	switch c := cond.(type) {
	case nil:
		b.WriteString("<nil>")
	case Comparison:
		writeExpression(b, c.Left)
		b.WriteString(" " + string(c.Op) + " ")
		writeExpression(b, c.Right)
	case Cross:
		b.WriteString("cross_" + string(c.Direction) + "(")
		writeExpression(b, c.Left)
		b.WriteString(", ")
		writeExpression(b, c.Right)
		b.WriteString(")")
	case State:
		b.WriteString(string(c.Kind) + "(")
		writeExpression(b, c.Operand)
		fmt.Fprintf(b, ", %d)", c.Bars)
	case Change:
		b.WriteString("change_" + string(c.To) + "(")
		writeCondition(b, c.Inner)
		fmt.Fprintf(b, ", %d, %d)", c.PreconditionBars, c.ConfirmationBars)
	case Continue:
		fmt.Fprintf(b, "continue_%t(", c.Persist)
		writeCondition(b, c.Inner)
		fmt.Fprintf(b, ", %d)", c.Bars)
	case Group:
		b.WriteString(string(c.Op) + "(")

		for i, sub := range c.Conditions {
			if i > 0 {
				b.WriteString(", ")
			}

			writeCondition(b, sub)
		}

		b.WriteString(")")
	default:
		fmt.Fprintf(b, "%T", cond)
	}
}

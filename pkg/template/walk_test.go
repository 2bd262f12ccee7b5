package template

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type WalkTestSuite struct {
	suite.Suite
}

func TestWalkSuite(t *testing.T) {
	suite.Run(t, new(WalkTestSuite))
}

func (suite *WalkTestSuite) TestCollectsVariableReferences() {
	expr := If(
		CrossesOver(Var("fast"), VarAt("slow", 1, 0)),
		Agg(MethodSMA, Var("spread"), Num(3)),
		Call("moving_average", "ma", SrcParam("source", Var("hidden"))),
	)

	var names []string

	WalkExpression(expr, Visitor{
		Expression: func(e Expression) bool {
			if ref, ok := e.(VariableRef); ok {
				names = append(names, ref.Name)
			}

			return true
		},
	})

	suite.Equal([]string{"fast", "slow", "spread", "hidden"}, names)
}

func (suite *WalkTestSuite) TestStopsDescent() {
	expr := Add(Call("ema", "ema", SrcParam("source", Var("inner"))), Var("outer"))

	var names []string

	WalkExpression(expr, Visitor{
		Expression: func(e Expression) bool {
			switch ref := e.(type) {
			case IndicatorRef:
				return false
			case VariableRef:
				names = append(names, ref.Name)
			}

			return true
		},
	})

	suite.Equal([]string{"outer"}, names)
}

func (suite *WalkTestSuite) TestArgumentCallback() {
	expr := Call("moving_average", "ma",
		NumParam("period", Var("len")),
		SrcParam("source", Var("src")),
		MethodParam("method", MethodEMA),
	)

	var bound []string
	var vars []string

	WalkExpression(expr, Visitor{
		Expression: func(e Expression) bool {
			if ref, ok := e.(VariableRef); ok {
				vars = append(vars, ref.Name)
			}

			return true
		},
		Argument: func(_ IndicatorRef, p ParamBinding) bool {
			bound = append(bound, p.Name)

			return p.Name != "period"
		},
	})

	suite.Equal([]string{"period", "source", "method"}, bound)
	suite.Equal([]string{"src"}, vars)
}

func (suite *WalkTestSuite) TestWalkVariableFollowsFallback() {
	def := VariableDefinition{
		Name:       "x",
		Expression: Var("a"),
		Fallback:   &VariableDefinition{Name: "x_fallback", Expression: Var("b")},
	}

	var names []string

	WalkVariable(def, Visitor{
		Expression: func(e Expression) bool {
			if ref, ok := e.(VariableRef); ok {
				names = append(names, ref.Name)
			}

			return true
		},
	})

	suite.Equal([]string{"a", "b"}, names)
}

func (suite *WalkTestSuite) TestConditionsAreVisited() {
	cond := All(
		Change{To: ChangeToTrue, Inner: Gt(Var("a"), Num(0)), PreconditionBars: 1, ConfirmationBars: 1},
		Continue{Persist: true, Inner: Rising(Var("b"), 2), Bars: 3},
	)

	count := 0

	WalkCondition(cond, Visitor{
		Condition: func(Condition) bool {
			count++

			return true
		},
	})

	// group, change, comparison, continue, state
	suite.Equal(5, count)
}

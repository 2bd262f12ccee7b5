package backtrader

import (
	"testing"

	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
	"github.com/stretchr/testify/assert"
)

type strayStmt struct{}

func (strayStmt) pyStmt() {}

func TestRenderExprPrecedence(t *testing.T) {
	a, b, c := Name{ID: "a"}, Name{ID: "b"}, Name{ID: "c"}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"sum times", BinOp{Op: "*", Left: BinOp{Op: "+", Left: a, Right: b}, Right: c}, "(a + b) * c"},
		{"right subtraction", BinOp{Op: "-", Left: a, Right: BinOp{Op: "-", Left: b, Right: c}}, "a - (b - c)"},
		{"nested comparison", BinOp{Op: ">", Left: BinOp{Op: ">", Left: a, Right: b}, Right: c}, "(a > b) > c"},
		{"arithmetic in comparison", BinOp{Op: "==", Left: BinOp{Op: "%", Left: a, Right: Int{Value: 2}}, Right: Int{Value: 1}}, "a % 2 == 1"},
		{"and in or", BoolOp{Op: "or", Values: []Expr{BoolOp{Op: "and", Values: []Expr{a, b}}, c}}, "a and b or c"},
		{"or in and", BoolOp{Op: "and", Values: []Expr{BoolOp{Op: "or", Values: []Expr{a, b}}, c}}, "(a or b) and c"},
		{"not group", UnaryOp{Op: "not", Operand: BoolOp{Op: "and", Values: []Expr{a, b}}}, "not (a and b)"},
		{"negative literal", UnaryOp{Op: "-", Operand: Int{Value: -1}}, "-(-1)"},
		{"ifexp chain", IfExp{Cond: c, Then: a, Else: IfExp{Cond: a, Then: b, Else: c}}, "a if c else b if a else c"},
		{"ifexp in sum", BinOp{Op: "+", Left: IfExp{Cond: c, Then: a, Else: b}, Right: Int{Value: 1}}, "(a if c else b) + 1"},
		{"history", Subscript{Value: Attr{Value: Name{ID: "self"}, Name: "v_x"}, Index: Int{Value: -1}}, "self.v_x[-1]"},
		{"keywords", Call{Func: Name{ID: "f"}, Args: []Expr{a}, Keywords: []Keyword{{Name: "period", Value: Int{Value: 5}}}}, "f(a, period=5)"},
		{"delayed coupled line", Call{Func: Call{Func: Attr{Value: a, Name: "close"}, Args: []Expr{Int{Value: -3}}}}, "a.close(-3)()"},
		{"string quote", Str{Value: "it's"}, `'it\'s'`},
		{"single tuple", Tuple{Elts: []Expr{Str{Value: "ma"}}}, "('ma',)"},
		{"is not none", BinOp{Op: "is not", Left: a, Right: NoneLit{}}, "a is not None"},
		{"booleans", BoolOp{Op: "or", Values: []Expr{Bool{Value: true}, Bool{}}}, "True or False"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderExpr(tt.expr))
		})
	}
}

func TestRenderStatements(t *testing.T) {
	x := Name{ID: "x"}

	module := &Module{
		Doc: "Demo.",
		Body: []Stmt{
			Import{Module: "backtrader", Alias: "bt"},
			Blank{},
			ClassDef{
				Name:  "Demo",
				Bases: []Expr{Attr{Value: Name{ID: "bt"}, Name: "Strategy"}},
				Body: []Stmt{
					Assign{Target: Name{ID: "params"}, Value: Tuple{}},
					FunctionDef{Name: "first", Args: []string{"self"}, Doc: "First.", Body: []Stmt{
						If{
							Cond: BinOp{Op: ">", Left: x, Right: Int{Value: 1}},
							Body: []Stmt{Return{Value: Int{Value: 1}}},
							Else: []Stmt{If{
								Cond: BinOp{Op: "<", Left: x, Right: Int{Value: 0}},
								Body: []Stmt{Return{Value: Int{Value: -1}}},
								Else: []Stmt{Return{Value: Int{}}},
							}},
						},
					}},
					FunctionDef{Name: "second", Args: []string{"self"}, Body: []Stmt{
						For{Target: Tuple{Elts: []Expr{Name{ID: "k"}, Name{ID: "v"}}}, Iter: Name{ID: "items"}, Body: []Stmt{Pass{}}},
					}},
					FunctionDef{Name: "third", Args: []string{"self"}},
				},
			},
		},
	}

	want := `"""Demo."""

import backtrader as bt

class Demo(bt.Strategy):
  params = ()

  def first(self):
    """First."""
    if x > 1:
      return 1
    elif x < 0:
      return -1
    else:
      return 0

  def second(self):
    for (k, v) in items:
      pass

  def third(self):
    pass
`

	assert.Equal(t, want, Render(module, 2))
}

func TestRenderRejectsUnknownStatements(t *testing.T) {
	module := &Module{Body: []Stmt{strayStmt{}}}

	assert.PanicsWithValue(t, render.Unsupported{Node: strayStmt{}}, func() {
		Render(module, 4)
	})

	_, err := render.Guard(func() string { return Render(module, 4) })
	assert.EqualError(t, err, "unsupported node backtrader.strayStmt")
}

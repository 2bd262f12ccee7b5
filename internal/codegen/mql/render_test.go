package mql

import (
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
	"github.com/stretchr/testify/assert"
)

type strayStmt struct{}

func (strayStmt) mqlStmt() {}

type strayExpr struct{}

func (strayExpr) mqlExpr() {}

func TestRenderExprPrecedence(t *testing.T) {
	a, b, c := Ident{Name: "a"}, Ident{Name: "b"}, Ident{Name: "c"}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"sum times", Binary{Op: "*", Left: Binary{Op: "+", Left: a, Right: b}, Right: c}, "(a + b) * c"},
		{"times sum", Binary{Op: "+", Left: Binary{Op: "*", Left: a, Right: b}, Right: c}, "a * b + c"},
		{"right subtraction", Binary{Op: "-", Left: a, Right: Binary{Op: "-", Left: b, Right: c}}, "a - (b - c)"},
		{"left subtraction", Binary{Op: "-", Left: Binary{Op: "-", Left: a, Right: b}, Right: c}, "a - b - c"},
		{"and or", Binary{Op: "&&", Left: Binary{Op: "||", Left: a, Right: b}, Right: c}, "(a || b) && c"},
		{"comparison in and", Binary{Op: "&&", Left: Binary{Op: ">", Left: a, Right: b}, Right: c}, "a > b && c"},
		{"nested negation", Unary{Op: "-", Operand: Unary{Op: "-", Operand: a}}, "-(-a)"},
		{"negative literal", Unary{Op: "-", Operand: FloatLit{Value: -2}}, "-(-2.0)"},
		{"cond in sum", Binary{Op: "+", Left: Cond{Cond: a, Then: b, Else: c}, Right: IntLit{Value: 1}}, "(a ? b : c) + 1"},
		{"cond chain", Cond{Cond: a, Then: b, Else: Cond{Cond: c, Then: a, Else: b}}, "a ? b : c ? a : b"},
		{"guarded index", Cond{Cond: Binary{Op: ">", Left: Ident{Name: "bars"}, Right: Binary{Op: "+", Left: Ident{Name: "i"}, Right: IntLit{Value: 1}}}, Then: Index{Array: a, Index: Binary{Op: "+", Left: Ident{Name: "i"}, Right: IntLit{Value: 1}}}, Else: FloatLit{}}, "bars > i + 1 ? a[i + 1] : 0.0"},
		{"cast", Cast{Type: "int", Operand: Binary{Op: "-", Left: a, Right: IntLit{Value: 1}}}, "(int)(a - 1)"},
		{"method call", MethodCall{Recv: a, Name: "Get", Args: []Expr{b, IntLit{Value: 0}}}, "a.Get(b, 0)"},
		{"string", StringLit{Value: "EURUSD"}, `"EURUSD"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderExpr(tt.expr))
		})
	}
}

func TestRenderClassSections(t *testing.T) {
	period := VarDecl{Type: "double", Name: "m_period"}
	ctor := Function{Name: "CThing", Params: []Param{{Type: "double", Name: "period"}}, Body: []Stmt{
		Assign{Target: Ident{Name: "m_period"}, Value: Ident{Name: "period"}},
	}}
	get := Function{Return: "double", Name: "Get", Body: []Stmt{Return{Value: Ident{Name: "m_period"}}}}

	out := Render(&Program{
		Name:    "Thing",
		Classes: []Class{{Name: "CThing", Members: []Member{{Field: &period}, {Public: true, Method: &ctor, Constructor: true}, {Public: true, Method: &get}}}},
	}, 3)

	assert.Contains(t, out, strings.Join([]string{
		"class CThing",
		"{",
		"private:",
		"   double m_period;",
		"public:",
		"",
		"   CThing(double period)",
		"   {",
		"      m_period = period;",
		"   }",
		"",
		"   double Get()",
		"   {",
		"      return m_period;",
		"   }",
		"};",
	}, "\n"))
}

func TestRenderElseIfChain(t *testing.T) {
	out := Render(&Program{Name: "X", Functions: []Function{{Return: "void", Name: "F", Body: []Stmt{
		If{
			Cond: Ident{Name: "a"},
			Then: []Stmt{Return{}},
			Else: []Stmt{If{Cond: Ident{Name: "b"}, Then: []Stmt{Return{}}, Else: []Stmt{ExprStmt{Expr: Call{Func: "G"}}}}},
		},
	}}}}, 2)

	assert.Contains(t, out, "  if (a)\n  {\n    return;\n  }\n  else if (b)\n  {\n    return;\n  }\n  else\n  {\n    G();\n  }\n")
}

func TestRenderForwardDeclaresClasses(t *testing.T) {
	out := Render(&Program{
		Name:    "X",
		Globals: []Global{{Decl: VarDecl{Type: "CThing*", Name: "g_thing"}}},
		Classes: []Class{{Name: "CThing"}},
	}, 3)

	assert.Contains(t, out, "class CThing;\n\nCThing* g_thing;\n")
}

func TestRenderRejectsUnknownNodes(t *testing.T) {
	assert.PanicsWithValue(t, render.Unsupported{Node: strayStmt{}}, func() {
		Render(&Program{Name: "X", Functions: []Function{{Return: "void", Name: "F", Body: []Stmt{strayStmt{}}}}}, 3)
	})

	assert.PanicsWithValue(t, render.Unsupported{Node: strayExpr{}}, func() {
		RenderExpr(Binary{Op: "+", Left: Ident{Name: "a"}, Right: strayExpr{}})
	})
}

package backtrader

import (
	"strings"

	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
)

var precedence = map[string]int{
	"or":  2,
	"and": 3,
	"<":   5, "<=": 5, ">": 5, ">=": 5, "==": 5, "!=": 5, "is": 5, "is not": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "//": 7, "%": 7,
}

const (
	precIfExp   = 1
	precNot     = 4
	precCompare = 5
	precUnary   = 8
	precPostfix = 10
	precAtom    = 11
)

func exprPrecedence(e Expr) int {
	switch x := e.(type) {
	case IfExp:
		return precIfExp
	case BoolOp:
		return precedence[x.Op]
	case BinOp:
		return precedence[x.Op]
	case UnaryOp:
		if x.Op == "not" {
			return precNot
		}

		return precUnary
	case Num:
		if x.Value < 0 {
			return precUnary
		}

		return precAtom
	case Int:
		if x.Value < 0 {
			return precUnary
		}

		return precAtom
	case Attr, Call, Subscript:
		return precPostfix
	default:
		return precAtom
	}
}

// RenderExpr prints an expression with the minimum parentheses.
func RenderExpr(e Expr) string {
	switch x := e.(type) {
	case Name:
		return x.ID
	case Num:
		return render.Number(x.Value)
	case Int:
		return render.Int(x.Value)
	case Str:
		return "'" + strings.ReplaceAll(strings.ReplaceAll(x.Value, `\`, `\\`), "'", `\'`) + "'"
	case Bool:
		if x.Value {
			return "True"
		}

		return "False"
	case NoneLit:
		return "None"
	case Attr:
		return operand(x.Value, precPostfix, false) + "." + x.Name
	case Subscript:
		return operand(x.Value, precPostfix, false) + "[" + RenderExpr(x.Index) + "]"
	case Call:
		parts := make([]string, 0, len(x.Args)+len(x.Keywords))
		for _, a := range x.Args {
			parts = append(parts, RenderExpr(a))
		}

		for _, k := range x.Keywords {
			parts = append(parts, k.Name+"="+RenderExpr(k.Value))
		}

		return operand(x.Func, precPostfix, false) + "(" + strings.Join(parts, ", ") + ")"
	case UnaryOp:
		if x.Op == "not" {
			return "not " + operand(x.Operand, precNot, false)
		}

		return x.Op + operand(x.Operand, precUnary, true)
	case BinOp:
		p := precedence[x.Op]

		// comparisons chain in Python, so nested ones always get parentheses
		if p == precCompare {
			return operand(x.Left, p+1, false) + " " + x.Op + " " + operand(x.Right, p+1, false)
		}

		return operand(x.Left, p, false) + " " + x.Op + " " + operand(x.Right, p, true)
	case BoolOp:
		p := precedence[x.Op]
		parts := make([]string, len(x.Values))

		for i, v := range x.Values {
			parts[i] = operand(v, p+1, false)
		}

		return strings.Join(parts, " "+x.Op+" ")
	case IfExp:
		return operand(x.Then, precIfExp+1, false) + " if " + operand(x.Cond, precIfExp+1, false) + " else " + operand(x.Else, precIfExp, false)
	case Tuple:
		parts := make([]string, len(x.Elts))
		for i, v := range x.Elts {
			parts[i] = RenderExpr(v)
		}

		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}

		return "(" + strings.Join(parts, ", ") + ")"
	default:
		panic(render.Unsupported{Node: e})
	}
}

func operand(e Expr, context int, right bool) string {
	p := exprPrecedence(e)
	if p < context || (right && p == context && p != precAtom) {
		return "(" + RenderExpr(e) + ")"
	}

	return RenderExpr(e)
}

// Render prints a module with indent spaces per level. It panics with
// render.Unsupported on a node outside the tree.
func Render(m *Module, indent int) string {
	w := render.NewWriter(indent)

	if m.Doc != "" {
		w.Line(`"""%s"""`, m.Doc)
		w.Line("")
	}

	renderBody(w, m.Body)

	return w.String()
}

func renderBody(w *render.Writer, body []Stmt) {
	if len(body) == 0 {
		w.Line("pass")

		return
	}

	for _, s := range body {
		renderStmt(w, s)
	}
}

func renderStmt(w *render.Writer, s Stmt) {
	switch x := s.(type) {
	case Assign:
		w.Line("%s = %s", RenderExpr(x.Target), RenderExpr(x.Value))
	case ExprStmt:
		w.Line("%s", RenderExpr(x.Expr))
	case Return:
		if x.Value == nil {
			w.Line("return")
		} else {
			w.Line("return %s", RenderExpr(x.Value))
		}
	case Pass:
		w.Line("pass")
	case Comment:
		w.Line("# %s", x.Text)
	case Blank:
		w.Line("")
	case Import:
		if x.Alias != "" {
			w.Line("import %s as %s", x.Module, x.Alias)
		} else {
			w.Line("import %s", x.Module)
		}
	case FromImport:
		w.Line("from %s import %s", x.Module, strings.Join(x.Names, ", "))
	case If:
		w.Line("if %s:", RenderExpr(x.Cond))
		w.Indent()
		renderBody(w, x.Body)
		w.Dedent()

		for len(x.Else) > 0 {
			if nested, ok := x.Else[0].(If); ok && len(x.Else) == 1 {
				w.Line("elif %s:", RenderExpr(nested.Cond))
				w.Indent()
				renderBody(w, nested.Body)
				w.Dedent()
				x = nested

				continue
			}

			w.Line("else:")
			w.Indent()
			renderBody(w, x.Else)
			w.Dedent()

			break
		}
	case For:
		w.Line("for %s in %s:", RenderExpr(x.Target), RenderExpr(x.Iter))
		w.Indent()
		renderBody(w, x.Body)
		w.Dedent()
	case FunctionDef:
		w.Line("def %s(%s):", x.Name, strings.Join(x.Args, ", "))
		w.Indent()

		if x.Doc != "" {
			w.Line(`"""%s"""`, x.Doc)
		}

		renderBody(w, x.Body)
		w.Dedent()
	case ClassDef:
		bases := make([]string, len(x.Bases))
		for i, b := range x.Bases {
			bases[i] = RenderExpr(b)
		}

		w.Line("class %s(%s):", x.Name, strings.Join(bases, ", "))
		w.Indent()

		if x.Doc != "" {
			w.Line(`"""%s"""`, x.Doc)
			w.Line("")
		}

		for i, s := range x.Body {
			if _, ok := s.(FunctionDef); ok && i > 0 {
				w.Line("")
			}

			renderStmt(w, s)
		}

		if len(x.Body) == 0 && x.Doc == "" {
			w.Line("pass")
		}

		w.Dedent()
	default:
		panic(render.Unsupported{Node: s})
	}
}

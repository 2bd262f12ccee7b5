package mql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
)

// binding strength of binary operators; higher binds tighter.
var precedence = map[string]int{
	"||": 2,
	"&&": 3,
	"==": 4, "!=": 4,
	"<": 5, "<=": 5, ">": 5, ">=": 5,
	"+": 6, "-": 6,
	"*": 7, "/": 7, "%": 7,
}

const (
	precCond    = 1
	precUnary   = 8
	precPostfix = 9
	precAtom    = 10
)

func exprPrecedence(e Expr) int {
	switch x := e.(type) {
	case Cond:
		return precCond
	case Binary:
		return precedence[x.Op]
	case Unary, Cast:
		return precUnary
	case IntLit:
		if x.Value < 0 {
			return precUnary
		}

		return precAtom
	case FloatLit:
		if x.Value < 0 {
			return precUnary
		}

		return precAtom
	case Index, Call, MethodCall:
		return precPostfix
	default:
		return precAtom
	}
}

// RenderExpr prints an expression with the minimum parentheses.
func RenderExpr(e Expr) string {
	switch x := e.(type) {
	case Ident:
		return x.Name
	case IntLit:
		return render.Int(x.Value)
	case FloatLit:
		return render.Float(x.Value)
	case BoolLit:
		return strconv.FormatBool(x.Value)
	case StringLit:
		return strconv.Quote(x.Value)
	case Index:
		return operand(x.Array, precPostfix, false) + "[" + RenderExpr(x.Index) + "]"
	case Call:
		return x.Func + "(" + renderArgs(x.Args) + ")"
	case MethodCall:
		return operand(x.Recv, precPostfix, false) + "." + x.Name + "(" + renderArgs(x.Args) + ")"
	case Unary:
		return x.Op + operand(x.Operand, precUnary, true)
	case Cast:
		return "(" + x.Type + ")" + operand(x.Operand, precUnary, true)
	case Binary:
		p := precedence[x.Op]

		return operand(x.Left, p, false) + " " + x.Op + " " + operand(x.Right, p, true)
	case Cond:
		return operand(x.Cond, precCond+1, false) + " ? " + operand(x.Then, precCond+1, false) + " : " + operand(x.Else, precCond, false)
	default:
		panic(render.Unsupported{Node: e})
	}
}

// operand parenthesizes e when it binds looser than the context. Right operands
// of left-associative operators also need parentheses at equal strength.
func operand(e Expr, context int, right bool) string {
	p := exprPrecedence(e)
	if p < context || (right && p == context && p != precAtom) {
		return "(" + RenderExpr(e) + ")"
	}

	return RenderExpr(e)
}

func renderArgs(args []Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = RenderExpr(a)
	}

	return strings.Join(parts, ", ")
}

func renderParams(params []Param) string {
	parts := make([]string, len(params))

	for i, p := range params {
		var b strings.Builder

		if p.Const {
			b.WriteString("const ")
		}

		b.WriteString(p.Type)
		b.WriteByte(' ')

		if p.Ref || p.Array {
			b.WriteByte('&')
		}

		b.WriteString(p.Name)

		if p.Array {
			b.WriteString("[]")
		}

		parts[i] = b.String()
	}

	return strings.Join(parts, ", ")
}

func renderDecl(d VarDecl) string {
	s := d.Type + " " + d.Name
	if d.Array {
		s += "[]"
	}

	if d.Init != nil {
		s += " = " + RenderExpr(d.Init)
	}

	return s + ";"
}

// Render prints a whole program. It panics with render.Unsupported on a node
// outside the tree.
func Render(p *Program, indent int) string {
	w := render.NewWriter(indent)

	w.Line("//+------------------------------------------------------------------+")
	w.Line("//| %s", p.Name+".mq5")
	w.Line("//| Generated by argo-codegen. Do not edit.")
	w.Line("//+------------------------------------------------------------------+")

	for _, prop := range p.Properties {
		w.Line("#property %s %s", prop.Name, RenderExpr(prop.Value))
	}

	w.Line("")

	for _, inc := range p.Includes {
		w.Line("#include <%s>", inc)
	}

	if len(p.Includes) > 0 {
		w.Line("")
	}

	for _, d := range p.Defines {
		w.Line("#define %s %s", d.Name, RenderExpr(d.Value))
	}

	if len(p.Defines) > 0 {
		w.Line("")
	}

	for _, in := range p.Inputs {
		line := fmt.Sprintf("input %s %s = %s;", in.Type, in.Name, RenderExpr(in.Value))
		if in.Comment != "" {
			line += " // " + in.Comment
		}

		w.Line("%s", line)
	}

	if len(p.Inputs) > 0 {
		w.Line("")
	}

	// globals may point at classes defined further down
	for _, c := range p.Classes {
		w.Line("class %s;", c.Name)
	}

	if len(p.Classes) > 0 {
		w.Line("")
	}

	for _, g := range p.Globals {
		w.Line("%s", renderDecl(g.Decl))
	}

	if len(p.Globals) > 0 {
		w.Line("")
	}

	for _, c := range p.Classes {
		renderClass(w, c)
		w.Line("")
	}

	for i, f := range p.Functions {
		if i > 0 {
			w.Line("")
		}

		renderFunction(w, f, "")
	}

	return w.String()
}

func renderClass(w *render.Writer, c Class) {
	if c.Comment != "" {
		w.Line("// %s", c.Comment)
	}

	w.Line("class %s", c.Name)
	w.Line("{")

	for _, public := range []bool{false, true} {
		var members []Member

		for _, m := range c.Members {
			if m.Public == public {
				members = append(members, m)
			}
		}

		if len(members) == 0 {
			continue
		}

		if public {
			w.Line("public:")
		} else {
			w.Line("private:")
		}

		w.Indent()

		for _, m := range members {
			if m.Field != nil {
				w.Line("%s", renderDecl(*m.Field))

				continue
			}

			w.Line("")

			name := ""
			if m.Constructor {
				name = c.Name
			}

			renderFunction(w, *m.Method, name)
		}

		w.Dedent()
	}

	w.Line("};")
}

func renderFunction(w *render.Writer, f Function, constructor string) {
	if f.Comment != "" {
		w.Line("// %s", f.Comment)
	}

	if constructor != "" {
		w.Line("%s(%s)", constructor, renderParams(f.Params))
	} else {
		w.Line("%s %s(%s)", f.Return, f.Name, renderParams(f.Params))
	}

	renderBlock(w, f.Body)
}

func renderBlock(w *render.Writer, body []Stmt) {
	w.Line("{")
	w.Indent()

	for _, s := range body {
		renderStmt(w, s)
	}

	w.Dedent()
	w.Line("}")
}

func renderStmt(w *render.Writer, s Stmt) {
	switch x := s.(type) {
	case VarDecl:
		w.Line("%s", renderDecl(x))
	case Assign:
		op := x.Op
		if op == "" {
			op = "="
		}

		w.Line("%s %s %s;", RenderExpr(x.Target), op, RenderExpr(x.Value))
	case ExprStmt:
		w.Line("%s;", RenderExpr(x.Expr))
	case Return:
		if x.Value == nil {
			w.Line("return;")
		} else {
			w.Line("return %s;", RenderExpr(x.Value))
		}
	case Comment:
		w.Line("// %s", x.Text)
	case Verbatim:
		w.Raw(x.Text)
	case For:
		w.Line("for (int %s = %s; %s; %s)", x.Var, RenderExpr(x.Init), RenderExpr(x.Cond), x.Post)
		renderBlock(w, x.Body)
	case If:
		w.Line("if (%s)", RenderExpr(x.Cond))
		renderBlock(w, x.Then)

		for len(x.Else) > 0 {
			// else-if chains stay flat
			if nested, ok := x.Else[0].(If); ok && len(x.Else) == 1 {
				w.Line("else if (%s)", RenderExpr(nested.Cond))
				renderBlock(w, nested.Then)
				x = nested

				continue
			}

			w.Line("else")
			renderBlock(w, x.Else)

			break
		}
	default:
		panic(render.Unsupported{Node: s})
	}
}

package mql

import (
	"slices"

	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

var baseSeries = []template.PriceSeries{
	template.SeriesOpen, template.SeriesHigh, template.SeriesLow, template.SeriesClose, template.SeriesVolume,
}

func paramType(kind template.ParamKind) string {
	if kind == template.ParamNumber {
		return "double"
	}

	return "int"
}

// lowerClass builds the class shared by every instance of one indicator.
func lowerClass(p *ir.Program, def *ir.IndicatorDefinition) (Class, error) {
	name := className(def.Name)
	class := Class{Name: name, Comment: def.Name + " indicator"}

	var sources []string

	series := slices.Clone(def.Series)
	for _, param := range def.Params {
		if param.Kind == template.ParamSource {
			sources = append(sources, param.Name)
		}
	}

	if len(sources) > 0 {
		series = append(series, baseSeries...)
	}

	series = expandSeries(series)

	var buffers []string
	for _, s := range series {
		buffers = append(buffers, priceBuffer(def, s))
	}

	for _, src := range sources {
		buffers = append(buffers, "m_src_"+src)
	}

	for _, v := range def.Variables {
		buffers = append(buffers, variableBuffer(def, v.Name))
	}

	field := func(d VarDecl) {
		class.Members = append(class.Members, Member{Field: &d})
	}

	for _, param := range def.Params {
		field(VarDecl{Type: paramType(param.Kind), Name: paramMember(param.Name)})
	}

	for _, b := range buffers {
		field(VarDecl{Type: "double", Name: b, Array: true})
	}

	field(VarDecl{Type: "int", Name: "m_lastCalculated"})
	field(VarDecl{Type: "int", Name: lastBars})

	s := &scope{
		program: p,
		index:   Ident{Name: "i"},
		bars:    Ident{Name: lastBars},
		def:     def,
		mirrors: &[]ir.InstanceSource{},
		methods: map[template.AggregationMethod]bool{},
	}

	var calculate []Stmt

	for _, v := range def.Variables {
		stmts, err := s.assignVariable(Index{Array: Ident{Name: variableBuffer(def, v.Name)}, Index: s.index}, v)
		if err != nil {
			return Class{}, errors.Wrapf(errors.GetCode(err), err, "mql: indicator %s variable %s", def.Name, v.Name)
		}

		calculate = append(calculate, Comment{Text: v.Name})
		calculate = append(calculate, stmts...)
	}

	method := func(public bool, f Function) {
		class.Members = append(class.Members, Member{Public: public, Method: &f})
	}

	for _, h := range helpers(s.methods) {
		method(false, h)
	}

	if len(sources) > 0 {
		method(false, sourcePrice(def))
	}

	method(false, Function{Return: "void", Name: "Calculate", Params: []Param{{Type: "int", Name: "i"}}, Body: calculate})

	ctor := Function{Name: name}
	for _, param := range def.Params {
		ctor.Params = append(ctor.Params, Param{Type: paramType(param.Kind), Name: param.Name})
		ctor.Body = append(ctor.Body, Assign{Target: Ident{Name: paramMember(param.Name)}, Value: Ident{Name: param.Name}})
	}

	ctor.Body = append(ctor.Body, seriesAll(buffers)...)
	ctor.Body = append(ctor.Body,
		Assign{Target: Ident{Name: "m_lastCalculated"}, Value: IntLit{}},
		Assign{Target: Ident{Name: lastBars}, Value: IntLit{}},
	)

	class.Members = append(class.Members, Member{Public: true, Method: &ctor, Constructor: true})

	method(true, update(def, series, sources, buffers))
	method(true, get(def))

	return class, nil
}

func sourcePrice(def *ir.IndicatorDefinition) Function {
	k := Ident{Name: "k"}
	code := Ident{Name: "code"}

	var body []Stmt

	for _, s := range template.PriceSeriesList {
		if s == template.SeriesClose {
			continue
		}

		var value Expr
		if s.Composite() {
			value = composite(s, func(c template.PriceSeries) Expr {
				return Index{Array: Ident{Name: priceBuffer(def, c)}, Index: k}
			})
		} else {
			value = Index{Array: Ident{Name: priceBuffer(def, s)}, Index: k}
		}

		body = append(body, If{Cond: Binary{Op: "==", Left: code, Right: Ident{Name: seriesCode(s)}}, Then: []Stmt{Return{Value: value}}})
	}

	body = append(body, Return{Value: Index{Array: Ident{Name: priceBuffer(def, template.SeriesClose)}, Index: k}})

	return Function{
		Return: "double",
		Name:   "SourcePrice",
		Params: []Param{{Type: "int", Name: "code"}, {Type: "int", Name: "k"}},
		Body:   body,
	}
}

func update(def *ir.IndicatorDefinition, series []template.PriceSeries, sources, buffers []string) Function {
	bars := Ident{Name: "bars"}
	last := Ident{Name: lastBars}

	body := []Stmt{
		If{
			Cond: Binary{Op: "||", Left: Binary{Op: "==", Left: last, Right: IntLit{}}, Right: Binary{Op: "<", Left: bars, Right: last}},
			Then: []Stmt{Assign{Target: Ident{Name: "m_lastCalculated"}, Value: IntLit{}}},
		},
		VarDecl{Type: "int", Name: "start", Init: startIndex("bars", lastBars)},
	}

	body = append(body, resizeAll(buffers, bars)...)
	body = append(body, fillPrices(def, series, Ident{Name: "start"})...)

	if len(sources) > 0 {
		k := Ident{Name: "k"}

		var fill []Stmt
		for _, src := range sources {
			fill = append(fill, Assign{
				Target: Index{Array: Ident{Name: "m_src_" + src}, Index: k},
				Value:  Call{Func: "SourcePrice", Args: []Expr{Ident{Name: paramMember(src)}, k}},
			})
		}

		body = append(body, For{Var: "k", Init: Ident{Name: "start"}, Cond: Binary{Op: ">=", Left: k, Right: IntLit{}}, Post: "k--", Body: fill})
	}

	body = append(body, Assign{Target: last, Value: bars})

	return Function{Return: "void", Name: "Update", Params: []Param{{Type: "int", Name: "bars"}}, Body: body}
}

// get calculates every bar newer than the last closed one, then reads a line.
// The forming bar is recalculated on every call.
func get(def *ir.IndicatorDefinition) Function {
	shift := Ident{Name: "shift"}
	last := Ident{Name: lastBars}
	i := Ident{Name: "i"}
	newestClosed := Binary{Op: "-", Left: last, Right: IntLit{Value: 1}}

	body := []Stmt{
		If{
			Cond: Binary{Op: "||", Left: Binary{Op: "<", Left: shift, Right: IntLit{}}, Right: Binary{Op: ">=", Left: shift, Right: last}},
			Then: []Stmt{Return{Value: FloatLit{}}},
		},
		For{
			Var:  "i",
			Init: Binary{Op: "-", Left: newestClosed, Right: Ident{Name: "m_lastCalculated"}},
			Cond: Binary{Op: ">=", Left: i, Right: IntLit{}},
			Post: "i--",
			Body: []Stmt{ExprStmt{Expr: Call{Func: "Calculate", Args: []Expr{i}}}},
		},
		Assign{Target: Ident{Name: "m_lastCalculated"}, Value: newestClosed},
	}

	for _, line := range def.Lines {
		body = append(body, If{
			Cond: Binary{Op: "==", Left: Ident{Name: "line"}, Right: Ident{Name: lineCode(def.Name, line)}},
			Then: []Stmt{Return{Value: Index{Array: Ident{Name: variableBuffer(def, def.ExportFor(line))}, Index: shift}}},
		})
	}

	body = append(body, Return{Value: FloatLit{}})

	return Function{
		Return: "double",
		Name:   "Get",
		Params: []Param{{Type: "int", Name: "line"}, {Type: "int", Name: "shift"}},
		Body:   body,
	}
}

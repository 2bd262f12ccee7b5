package mql

import (
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// lowerStrategy adds the globals and functions of the expert advisor.
func lowerStrategy(p *ir.Program, out *Program) error {
	strategy := p.Strategy

	var mirrors []ir.InstanceSource

	s := &scope{
		program: p,
		index:   Ident{Name: "i"},
		bars:    Ident{Name: totalBars},
		mirrors: &mirrors,
		methods: map[template.AggregationMethod]bool{},
	}

	var calculate []Stmt

	for _, v := range strategy.Variables {
		stmts, err := s.assignVariable(Index{Array: Ident{Name: variableBuffer(nil, v.Name)}, Index: s.index}, v)
		if err != nil {
			return errors.Wrapf(errors.GetCode(err), err, "mql: variable %s", v.Name)
		}

		calculate = append(calculate, Comment{Text: v.Name})
		calculate = append(calculate, stmts...)
	}

	now := s.at(IntLit{})

	signals := []struct {
		name    string
		signals []ir.Signal
		side    template.Side
	}{
		{"EntryLong", strategy.Entries, template.SideLong},
		{"EntryShort", strategy.Entries, template.SideShort},
		{"ExitLong", strategy.Exits, template.SideLong},
		{"ExitShort", strategy.Exits, template.SideShort},
	}

	var signalFuncs []Function

	for _, group := range signals {
		var body []Stmt

		for _, sig := range group.signals {
			if sig.Side != group.side {
				continue
			}

			cond, err := now.condition(sig.Condition)
			if err != nil {
				return errors.Wrapf(errors.GetCode(err), err, "mql: signal %s", sig.Name)
			}

			body = append(body, Comment{Text: sig.Name}, If{Cond: cond, Then: []Stmt{Return{Value: BoolLit{Value: true}}}})
		}

		body = append(body, Return{Value: BoolLit{Value: false}})
		signalFuncs = append(signalFuncs, Function{Return: "bool", Name: group.name, Body: body})
	}

	// Instance lines used as aggregation sources are copied before variables read them.
	var mirrorFill []Stmt
	for _, m := range mirrors {
		mirrorFill = append(mirrorFill, Assign{
			Target: Index{Array: Ident{Name: mirrorBuffer(m)}, Index: s.index},
			Value:  MethodCall{Recv: Ident{Name: instanceVar(m.InstanceID)}, Name: "Get", Args: []Expr{Ident{Name: lineCode(m.Indicator, m.Line)}, s.index}},
		})
	}

	calculate = append(mirrorFill, calculate...)

	series := expandSeries(p.Series)

	var buffers []string
	for _, sr := range series {
		buffers = append(buffers, priceBuffer(nil, sr))
	}

	for _, v := range strategy.Variables {
		buffers = append(buffers, variableBuffer(nil, v.Name))
	}

	for _, m := range mirrors {
		buffers = append(buffers, mirrorBuffer(m))
	}

	out.Globals = append(out.Globals,
		Global{Decl: VarDecl{Type: "CTrade", Name: "g_trade"}},
		Global{Decl: VarDecl{Type: "string", Name: "g_symbol"}},
		Global{Decl: VarDecl{Type: "int", Name: totalBars, Init: IntLit{}}},
		Global{Decl: VarDecl{Type: "int", Name: "g_lastBars", Init: IntLit{}}},
	)

	for _, inst := range strategy.Instances {
		out.Globals = append(out.Globals, Global{Decl: VarDecl{Type: className(inst.Indicator) + "*", Name: instanceVar(inst.ID)}})
	}

	for _, b := range buffers {
		out.Globals = append(out.Globals, Global{Decl: VarDecl{Type: "double", Name: b, Array: true}})
	}

	onInit, err := initFunction(p, buffers)
	if err != nil {
		return err
	}

	out.Functions = append(out.Functions, onInit, deinitFunction(p), tickFunction(p, series, buffers))
	out.Functions = append(out.Functions, helpers(s.methods)...)

	if len(series) > 0 {
		out.Functions = append(out.Functions, Function{
			Return: "void",
			Name:   "UpdatePrices",
			Params: []Param{{Type: "int", Name: "start"}},
			Body:   fillPrices(nil, series, Ident{Name: "start"}),
		})
	}

	out.Functions = append(out.Functions, Function{
		Return:  "void",
		Name:    "CalculateVariables",
		Params:  []Param{{Type: "int", Name: "i"}},
		Body:    calculate,
		Comment: "variables in dependency order",
	})
	out.Functions = append(out.Functions, signalFuncs...)
	out.Functions = append(out.Functions, tradingFunctions()...)

	return nil
}

// constructorArgs passes instance arguments in declared parameter order.
func constructorArgs(def *ir.IndicatorDefinition, inst *ir.Instance) ([]Expr, error) {
	var args []Expr

	for _, param := range def.Params {
		arg, ok := inst.Arg(param.Name)
		if !ok {
			if param.Kind == template.ParamNumber {
				args = append(args, FloatLit{})
			} else {
				args = append(args, IntLit{})
			}

			continue
		}

		switch v := arg.Value.(type) {
		case ir.Constant:
			args = append(args, FloatLit{Value: v.Value})
		case ir.MethodLiteral:
			args = append(args, Ident{Name: methodCode(v.Method)})
		case ir.BarRef:
			src, ok := v.Source.(ir.PriceSource)
			if !ok || src.Ratio > 1 || !ir.IsZero(v.Shift) {
				return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "mql: instance %s argument %s must be a current base timeframe price series", inst.ID, param.Name)
			}

			args = append(args, Ident{Name: seriesCode(src.Series)})
		default:
			return nil, errors.Newf(errors.ErrCodeUnsupportedArgument, "mql: instance %s argument %s is %T", inst.ID, param.Name, arg.Value)
		}
	}

	return args, nil
}

func initFunction(p *ir.Program, buffers []string) (Function, error) {
	body := []Stmt{
		Assign{Target: Ident{Name: "g_symbol"}, Value: Cond{
			Cond: Binary{Op: "==", Left: Ident{Name: "InpSymbol"}, Right: StringLit{}},
			Then: Ident{Name: "_Symbol"},
			Else: Ident{Name: "InpSymbol"},
		}},
		ExprStmt{Expr: MethodCall{Recv: Ident{Name: "g_trade"}, Name: "SetExpertMagicNumber", Args: []Expr{Ident{Name: "InpMagic"}}}},
	}

	body = append(body, seriesAll(buffers)...)

	for _, inst := range p.Strategy.Instances {
		def, ok := p.Indicator(inst.Indicator)
		if !ok {
			return Function{}, errors.Newf(errors.ErrCodeUnresolvedInstance, "mql: instance %s has no indicator definition", inst.ID)
		}

		args, err := constructorArgs(def, inst)
		if err != nil {
			return Function{}, err
		}

		body = append(body, Assign{Target: Ident{Name: instanceVar(inst.ID)}, Value: Call{Func: "new " + className(inst.Indicator), Args: args}})
	}

	body = append(body, Return{Value: Ident{Name: "INIT_SUCCEEDED"}})

	return Function{Return: "int", Name: "OnInit", Body: body}, nil
}

func deinitFunction(p *ir.Program) Function {
	var body []Stmt

	for _, inst := range p.Strategy.Instances {
		body = append(body, ExprStmt{Expr: Call{Func: "delete", Args: []Expr{Ident{Name: instanceVar(inst.ID)}}}})
	}

	return Function{Return: "void", Name: "OnDeinit", Params: []Param{{Type: "int", Name: "reason", Const: true}}, Body: body}
}

func tickFunction(p *ir.Program, series []template.PriceSeries, buffers []string) Function {
	bars := Ident{Name: totalBars}
	start := Ident{Name: "start"}
	i := Ident{Name: "i"}

	body := []Stmt{
		Assign{Target: bars, Value: Call{Func: "Bars", Args: []Expr{Ident{Name: "g_symbol"}, Ident{Name: basePeriod}}}},
		If{Cond: Binary{Op: "<", Left: bars, Right: IntLit{Value: 2}}, Then: []Stmt{Return{}}},
		VarDecl{Type: "int", Name: "start", Init: startIndex(totalBars, "g_lastBars")},
	}

	body = append(body, resizeAll(buffers, bars)...)

	if len(series) > 0 {
		body = append(body, ExprStmt{Expr: Call{Func: "UpdatePrices", Args: []Expr{start}}})
	}

	for _, inst := range p.Strategy.Instances {
		body = append(body, ExprStmt{Expr: MethodCall{Recv: Ident{Name: instanceVar(inst.ID)}, Name: "Update", Args: []Expr{bars}}})
	}

	position := func(side string) Expr {
		return Call{Func: "HasPosition", Args: []Expr{Ident{Name: "POSITION_TYPE_" + side}}}
	}

	body = append(body,
		For{Var: "i", Init: start, Cond: Binary{Op: ">=", Left: i, Right: IntLit{}}, Post: "i--", Body: []Stmt{
			ExprStmt{Expr: Call{Func: "CalculateVariables", Args: []Expr{i}}},
		}},
		Assign{Target: Ident{Name: "g_lastBars"}, Value: bars},
		If{Cond: Unary{Op: "!", Operand: Call{Func: "InTradingWindow"}}, Then: []Stmt{Return{}}},
		If{
			Cond: Binary{Op: "&&", Left: position("BUY"), Right: Call{Func: "ExitLong"}},
			Then: []Stmt{ExprStmt{Expr: Call{Func: "ClosePositions", Args: []Expr{Ident{Name: "POSITION_TYPE_BUY"}}}}},
		},
		If{
			Cond: Binary{Op: "&&", Left: position("SELL"), Right: Call{Func: "ExitShort"}},
			Then: []Stmt{ExprStmt{Expr: Call{Func: "ClosePositions", Args: []Expr{Ident{Name: "POSITION_TYPE_SELL"}}}}},
		},
		If{Cond: Binary{Op: "||", Left: position("BUY"), Right: position("SELL")}, Then: []Stmt{Return{}}},
		If{
			Cond: Call{Func: "EntryLong"},
			Then: []Stmt{ExprStmt{Expr: Call{Func: "OpenPosition", Args: []Expr{Ident{Name: "ORDER_TYPE_BUY"}}}}},
			Else: []Stmt{If{
				Cond: Call{Func: "EntryShort"},
				Then: []Stmt{ExprStmt{Expr: Call{Func: "OpenPosition", Args: []Expr{Ident{Name: "ORDER_TYPE_SELL"}}}}},
			}},
		},
	)

	return Function{Return: "void", Name: "OnTick", Body: body}
}

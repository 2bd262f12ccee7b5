package backtrader

import (
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

// defaultPoint is the price distance of one point for stop and target params.
const defaultPoint = 0.0001

func lowerStrategy(p *ir.Program) (ClassDef, error) {
	strategy := p.Strategy
	s := &scope{program: p, hoisted: &[]hoist{}, constants: map[string]Expr{}}

	var init []Stmt

	for _, series := range p.Series {
		if series.Composite() {
			init = append(init, Assign{
				Target: attr(self, priceAttr(series)),
				Value:  call(Name{ID: seriesHelper}, attr(self, "data"), Str{Value: string(series)}),
			})
		}
	}

	for _, inst := range strategy.Instances {
		value, err := instantiate(p, inst)
		if err != nil {
			return ClassDef{}, err
		}

		init = append(init, Assign{Target: attr(self, instanceAttr(inst.ID)), Value: value})
	}

	vars, err := s.variables(strategy.Variables)
	if err != nil {
		return ClassDef{}, err
	}

	init = append(init, vars...)

	signals := []struct {
		name    string
		signals []ir.Signal
		side    template.Side
	}{
		{"entry_long", strategy.Entries, template.SideLong},
		{"entry_short", strategy.Entries, template.SideShort},
		{"exit_long", strategy.Exits, template.SideLong},
		{"exit_short", strategy.Exits, template.SideShort},
	}

	var methods []Stmt

	for _, group := range signals {
		var body []Stmt

		for _, sig := range group.signals {
			if sig.Side != group.side {
				continue
			}

			cond, err := s.valueCondition(sig.Condition)
			if err != nil {
				return ClassDef{}, errors.Wrapf(errors.GetCode(err), err, "backtrader: signal %s", sig.Name)
			}

			body = append(body, Comment{Text: sig.Name}, If{Cond: cond, Body: []Stmt{Return{Value: Bool{Value: true}}}})
		}

		body = append(body, Return{Value: Bool{Value: false}})
		methods = append(methods, FunctionDef{Name: group.name, Args: []string{"self"}, Body: body})
	}

	// aggregations read bar by bar are built once up front
	for _, h := range *s.hoisted {
		init = append(init, Assign{Target: attr(self, h.name), Value: h.value})
	}

	settings := strategy.Settings
	param := func(name string, value Expr) Expr {
		return Tuple{Elts: []Expr{Str{Value: name}, value}}
	}

	body := []Stmt{
		Assign{Target: Name{ID: "params"}, Value: Tuple{Elts: []Expr{
			param("size", Num{Value: settings.Position.Size}),
			param("stop_loss", Num{Value: settings.Risk.StopLossPoints}),
			param("take_profit", Num{Value: settings.Risk.TakeProfitPoints}),
			param("point", Num{Value: defaultPoint}),
			param("start_hour", Int{Value: settings.Timing.StartHour}),
			param("end_hour", Int{Value: settings.Timing.EndHour}),
		}}},
		FunctionDef{Name: "__init__", Args: []string{"self"}, Body: init},
	}

	body = append(body, tradingMethods()...)
	body = append(body, methods...)

	return ClassDef{
		Name:  StrategyClass(p),
		Bases: []Expr{bt("Strategy")},
		Doc:   strategy.Name,
		Body:  body,
	}, nil
}

// instantiate builds an indicator instance on the base data feed. Arguments are
// passed by keyword; unbound parameters keep their class defaults.
func instantiate(p *ir.Program, inst *ir.Instance) (Expr, error) {
	def, ok := p.Indicator(inst.Indicator)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnresolvedInstance, "backtrader: instance %s has no indicator definition", inst.ID)
	}

	out := Call{Func: Name{ID: className(def.Name)}, Args: []Expr{attr(self, "data")}}

	for _, param := range def.Params {
		arg, ok := inst.Arg(param.Name)
		if !ok {
			continue
		}

		var value Expr

		switch v := arg.Value.(type) {
		case ir.Constant:
			value = Num{Value: v.Value}
		case ir.MethodLiteral:
			value = Str{Value: string(v.Method)}
		case ir.BarRef:
			src, ok := v.Source.(ir.PriceSource)
			if !ok || src.Ratio > 1 || !ir.IsZero(v.Shift) {
				return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "backtrader: instance %s argument %s must be a current base timeframe price series", inst.ID, param.Name)
			}

			value = Str{Value: string(src.Series)}
		default:
			return nil, errors.Newf(errors.ErrCodeUnsupportedArgument, "backtrader: instance %s argument %s is %T", inst.ID, param.Name, arg.Value)
		}

		out.Keywords = append(out.Keywords, Keyword{Name: param.Name, Value: value})
	}

	return out, nil
}

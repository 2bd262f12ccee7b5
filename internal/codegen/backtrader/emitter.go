package backtrader

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"go.uber.org/zap"
)

// Options configures the generated modules.
type Options struct {
	// Indent is the number of spaces per level.
	Indent int
	// DataFeedPath is the CSV file the driver loads.
	DataFeedPath   string
	InitialCapital float64
	// Commission is the broker commission rate; None keeps the broker default.
	Commission optional.Option[float64]
}

// Generator emits a strategy module and a driver script per program.
type Generator struct {
	log  *logger.Logger
	opts Options
}

// NewGenerator creates a generator.
func NewGenerator(log *logger.Logger, opts Options) *Generator {
	if opts.Indent <= 0 {
		opts.Indent = 4
	}

	return &Generator{log: log.Named("backtrader"), opts: opts}
}

func (g *Generator) Target() codegen.Target {
	return codegen.TargetBacktrader
}

// Emit lowers and renders a program.
func (g *Generator) Emit(program *ir.Program) (*codegen.Artifact, error) {
	strategy, err := Lower(program)
	if err != nil {
		return nil, err
	}

	base := render.Snake(program.Strategy.Name)
	module := base + "_strategy"
	driver := Driver(program, module, g.opts)

	strategySource, err := render.Guard(func() string { return Render(strategy, g.opts.Indent) })
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmissionFailed, "backtrader: failed to render strategy", err)
	}

	driverSource, err := render.Guard(func() string { return Render(driver, g.opts.Indent) })
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmissionFailed, "backtrader: failed to render driver", err)
	}

	files := []codegen.File{
		{Name: module + ".py", Content: strategySource},
		{Name: "run_" + base + ".py", Content: driverSource},
	}

	g.log.Debug("emitted backtrader strategy",
		zap.String("strategy", program.Strategy.Name),
		zap.Int("indicators", len(program.Indicators)),
		zap.Int("timeframes", len(program.Timeframes)),
		zap.Int("bytes", len(files[0].Content)+len(files[1].Content)),
	)

	return &codegen.Artifact{Target: codegen.TargetBacktrader, Files: files}, nil
}

// StrategyClass is the class name of the generated strategy.
func StrategyClass(p *ir.Program) string {
	return className(p.Strategy.Name) + "Strategy"
}

// Lower converts a program into the strategy module.
func Lower(p *ir.Program) (*Module, error) {
	if p == nil || p.Strategy == nil {
		return nil, errors.New(errors.ErrCodeEmissionFailed, "backtrader: program has no strategy")
	}

	body := []Stmt{
		Import{Module: "backtrader", Alias: "bt"},
		Blank{},
		Blank{},
		seriesFunction(),
	}

	for _, m := range p.Aggregations {
		if m == template.MethodMedian {
			body = append(body, Blank{}, Blank{}, medianIndicator())
		}
	}

	for _, def := range p.Indicators {
		class, err := lowerIndicator(p, def)
		if err != nil {
			return nil, err
		}

		body = append(body, Blank{}, Blank{}, class)
	}

	class, err := lowerStrategy(p)
	if err != nil {
		return nil, err
	}

	body = append(body, Blank{}, Blank{}, class)

	return &Module{Doc: "Backtrader strategy for " + p.Strategy.Name + ". Generated by argo-codegen.", Body: body}, nil
}

// defaultValue renders a parameter default for a params tuple.
func defaultValue(param template.ParamDecl) Expr {
	if !param.Default.IsSome() {
		if param.Kind == template.ParamNumber {
			return Num{}
		}

		return NoneLit{}
	}

	switch arg := param.Default.Unwrap().(type) {
	case template.NumberArg:
		if c, ok := arg.Value.(template.Constant); ok {
			return Num{Value: c.Value}
		}
	case template.SourceArg:
		if ref, ok := arg.Value.(template.PriceRef); ok {
			return Str{Value: string(ref.Series)}
		}
	case template.MethodArg:
		return Str{Value: string(arg.Method)}
	}

	return NoneLit{}
}

// variables assigns each variable to a self attribute. Variables that read no
// bars are recorded as constants and inlined at their references instead.
func (s *scope) variables(vars []*ir.Variable) ([]Stmt, error) {
	var out []Stmt

	for _, v := range vars {
		if static(v.Expr) {
			value, err := s.value(v.Expr)
			if err != nil {
				return nil, errors.Wrapf(errors.GetCode(err), err, "backtrader: variable %s", v.Name)
			}

			s.constants[v.Name] = value

			continue
		}

		value, err := s.lineExpr(v.Expr)
		if err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "backtrader: variable %s", v.Name)
		}

		out = append(out, Assign{Target: attr(self, variableAttr(v.Name)), Value: value})
	}

	return out, nil
}

func lowerIndicator(p *ir.Program, def *ir.IndicatorDefinition) (ClassDef, error) {
	s := &scope{program: p, def: def, constants: map[string]Expr{}}

	lines := make([]Expr, len(def.Lines))
	for i, l := range def.Lines {
		lines[i] = Str{Value: l}
	}

	params := make([]Expr, len(def.Params))
	for i, param := range def.Params {
		params[i] = Tuple{Elts: []Expr{Str{Value: param.Name}, defaultValue(param)}}
	}

	var init []Stmt

	for _, param := range def.Params {
		if param.Kind == template.ParamSource {
			init = append(init, Assign{
				Target: attr(self, sourceAttr(param.Name)),
				Value:  call(Name{ID: seriesHelper}, attr(self, "data"), attr(self, "p", param.Name)),
			})
		}
	}

	vars, err := s.variables(def.Variables)
	if err != nil {
		return ClassDef{}, errors.Wrapf(errors.GetCode(err), err, "backtrader: indicator %s", def.Name)
	}

	init = append(init, vars...)

	for _, export := range def.Exports {
		var value Expr = attr(self, variableAttr(export.Variable))

		// a constant line still needs the data clock
		if c, ok := s.constants[export.Variable]; ok {
			value = BinOp{Op: "+", Left: BinOp{Op: "*", Left: attr(self, "data"), Right: Num{}}, Right: c}
		}

		init = append(init, Assign{Target: attr(self, "lines", export.Line), Value: value})
	}

	warmup, err := s.warmup(def)
	if err != nil {
		return ClassDef{}, errors.Wrapf(errors.GetCode(err), err, "backtrader: indicator %s", def.Name)
	}

	init = append(init, warmup...)

	return ClassDef{
		Name:  className(def.Name),
		Bases: []Expr{bt("Indicator")},
		Doc:   def.Name,
		Body: []Stmt{
			Assign{Target: Name{ID: "lines"}, Value: Tuple{Elts: lines}},
			Assign{Target: Name{ID: "params"}, Value: Tuple{Elts: params}},
			FunctionDef{Name: "__init__", Args: []string{"self"}, Body: init},
		},
	}, nil
}

// warmup turns the invalid period of each exported variable into a minimum
// period, so the framework skips bars the variable is not defined on.
func (s *scope) warmup(def *ir.IndicatorDefinition) ([]Stmt, error) {
	var out []Stmt

	for _, export := range def.Exports {
		for _, v := range def.Variables {
			if v.Name != export.Variable || v.InvalidPeriod == nil {
				continue
			}

			bars, err := s.intValue(v.InvalidPeriod)
			if err != nil {
				return nil, err
			}

			var minimum Expr = BinOp{Op: "+", Left: bars, Right: Int{Value: 1}}
			if n, ok := bars.(Int); ok {
				minimum = Int{Value: n.Value + 1}
			}

			out = append(out, ExprStmt{Expr: call(attr(self, "addminperiod"), minimum)})
		}
	}

	return out, nil
}

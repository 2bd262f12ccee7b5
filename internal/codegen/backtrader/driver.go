package backtrader

import (
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

const defaultCapital = 10000

// feedTimeframe maps a timeframe to a backtrader timeframe and compression.
func feedTimeframe(tf template.Timeframe) []Keyword {
	frame, compression := "Minutes", tf.Minutes()

	switch tf {
	case template.TimeframeD1:
		frame, compression = "Days", 1
	case template.TimeframeW1:
		frame, compression = "Weeks", 1
	case template.TimeframeMN1:
		frame, compression = "Months", 1
	}

	return []Keyword{
		{Name: "timeframe", Value: bt("TimeFrame", frame)},
		{Name: "compression", Value: Int{Value: compression}},
	}
}

// Driver builds the script that loads a CSV feed, resamples it for every higher
// timeframe and runs the strategy with trade and transaction analyzers.
func Driver(p *ir.Program, module string, opts Options) *Module {
	class := StrategyClass(p)
	cerebro := Name{ID: "cerebro"}
	data := Name{ID: "data"}
	strategy := Name{ID: "strategy"}

	path := opts.DataFeedPath
	if path == "" {
		path = "data.csv"
	}

	capital := opts.InitialCapital
	if capital <= 0 {
		capital = defaultCapital
	}

	var commission Expr = NoneLit{}
	if opts.Commission.IsSome() {
		commission = Num{Value: opts.Commission.Unwrap()}
	}

	load := FunctionDef{
		Name: "load_data",
		Args: []string{"path"},
		Body: []Stmt{Return{Value: Call{
			Func: bt("feeds", "GenericCSVData"),
			Keywords: append([]Keyword{
				{Name: "dataname", Value: Name{ID: "path"}},
				{Name: "dtformat", Value: Str{Value: "%Y-%m-%d %H:%M:%S"}},
				{Name: "datetime", Value: Int{Value: 0}},
				{Name: "open", Value: Int{Value: 1}},
				{Name: "high", Value: Int{Value: 2}},
				{Name: "low", Value: Int{Value: 3}},
				{Name: "close", Value: Int{Value: 4}},
				{Name: "volume", Value: Int{Value: 5}},
				{Name: "openinterest", Value: Int{Value: -1}},
			}, feedTimeframe(p.BaseTimeframe)...),
		}}},
	}

	get := func(x Expr, key string) Expr {
		return call(attr(x, "get"), Str{Value: key}, Call{Func: Name{ID: "dict"}})
	}
	analysis := func(name string) Expr {
		return call(attr(strategy, "analyzers", name, "get_analysis"))
	}
	echo := func(args ...Expr) Stmt {
		return ExprStmt{Expr: call(Name{ID: "print"}, args...)}
	}

	report := FunctionDef{
		Name: "report",
		Args: []string{"strategy"},
		Doc:  "Print the closed trade count, the final portfolio value and every transaction.",
		Body: []Stmt{
			Assign{Target: Name{ID: "trades"}, Value: analysis("trades")},
			Assign{Target: Name{ID: "closed"}, Value: call(attr(get(Name{ID: "trades"}, "total"), "get"), Str{Value: "closed"}, Int{})},
			echo(Str{Value: "closed trades:"}, Name{ID: "closed"}),
			echo(Str{Value: "final value:"}, call(attr(strategy, "broker", "getvalue"))),
			For{
				Target: Tuple{Elts: []Expr{Name{ID: "when"}, Name{ID: "rows"}}},
				Iter:   call(attr(analysis("transactions"), "items")),
				Body: []Stmt{For{
					Target: Name{ID: "row"},
					Iter:   Name{ID: "rows"},
					Body:   []Stmt{echo(Name{ID: "when"}, Name{ID: "row"})},
				}},
			},
		},
	}

	main := []Stmt{
		Assign{Target: cerebro, Value: call(bt("Cerebro"))},
		Assign{Target: data, Value: call(Name{ID: "load_data"}, Name{ID: "DATA_PATH"})},
		ExprStmt{Expr: call(attr(cerebro, "adddata"), data)},
	}

	for _, use := range p.Timeframes {
		main = append(main, ExprStmt{Expr: Call{
			Func:     attr(cerebro, "resampledata"),
			Args:     []Expr{data},
			Keywords: feedTimeframe(use.Timeframe),
		}})
	}

	main = append(main,
		ExprStmt{Expr: call(attr(cerebro, "addstrategy"), Name{ID: class})},
		ExprStmt{Expr: call(attr(cerebro, "broker", "setcash"), Name{ID: "INITIAL_CAPITAL"})},
		If{
			Cond: BinOp{Op: "is not", Left: Name{ID: "COMMISSION"}, Right: NoneLit{}},
			Body: []Stmt{ExprStmt{Expr: Call{
				Func:     attr(cerebro, "broker", "setcommission"),
				Keywords: []Keyword{{Name: "commission", Value: Name{ID: "COMMISSION"}}},
			}}},
		},
		ExprStmt{Expr: Call{
			Func:     attr(cerebro, "addanalyzer"),
			Args:     []Expr{bt("analyzers", "TradeAnalyzer")},
			Keywords: []Keyword{{Name: "_name", Value: Str{Value: "trades"}}},
		}},
		ExprStmt{Expr: Call{
			Func:     attr(cerebro, "addanalyzer"),
			Args:     []Expr{bt("analyzers", "Transactions")},
			Keywords: []Keyword{{Name: "_name", Value: Str{Value: "transactions"}}},
		}},
		Assign{Target: Name{ID: "results"}, Value: call(attr(cerebro, "run"))},
		ExprStmt{Expr: call(Name{ID: "report"}, Subscript{Value: Name{ID: "results"}, Index: Int{}})},
	)

	return &Module{
		Doc: "Backtest driver for " + p.Strategy.Name + ". Generated by argo-codegen.",
		Body: []Stmt{
			Import{Module: "backtrader", Alias: "bt"},
			Blank{},
			FromImport{Module: module, Names: []string{class}},
			Blank{},
			Assign{Target: Name{ID: "DATA_PATH"}, Value: Str{Value: path}},
			Assign{Target: Name{ID: "INITIAL_CAPITAL"}, Value: Num{Value: capital}},
			Assign{Target: Name{ID: "COMMISSION"}, Value: commission},
			Blank{},
			Blank{},
			load,
			Blank{},
			Blank{},
			report,
			Blank{},
			Blank{},
			FunctionDef{Name: "main", Body: main},
			Blank{},
			Blank{},
			If{
				Cond: BinOp{Op: "==", Left: Name{ID: "__name__"}, Right: Str{Value: "__main__"}},
				Body: []Stmt{ExprStmt{Expr: call(Name{ID: "main"})}},
			},
		},
	}
}

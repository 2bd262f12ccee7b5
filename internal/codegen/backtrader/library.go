package backtrader

import (
	"github.com/rxtech-lab/argo-codegen/pkg/template"
)

const seriesHelper = "_series"

// seriesFunction resolves a price series name against a data feed. Composite
// series are averaged from their components.
func seriesFunction() FunctionDef {
	data := Name{ID: "data"}
	name := Name{ID: "name"}

	var body []Stmt

	for _, s := range template.PriceSeriesList {
		if !s.Composite() {
			continue
		}

		parts := s.Components()

		var sum Expr = attr(data, string(parts[0]))
		for _, p := range parts[1:] {
			sum = BinOp{Op: "+", Left: sum, Right: attr(data, string(p))}
		}

		body = append(body, If{
			Cond: BinOp{Op: "==", Left: name, Right: Str{Value: string(s)}},
			Body: []Stmt{Return{Value: BinOp{Op: "/", Left: sum, Right: Num{Value: float64(len(parts))}}}},
		})
	}

	body = append(body, Return{Value: call(Name{ID: "getattr"}, data, name)})

	return FunctionDef{
		Name: seriesHelper,
		Args: []string{"data", "name"},
		Doc:  "Return the line for a price series name.",
		Body: body,
	}
}

// medianIndicator is the rolling median, which backtrader does not ship.
func medianIndicator() ClassDef {
	window := Name{ID: "window"}
	n := Name{ID: "n"}
	mid := Name{ID: "mid"}

	return ClassDef{
		Name:  medianClass,
		Bases: []Expr{bt("Indicator")},
		Doc:   "Median of the last period values.",
		Body: []Stmt{
			Assign{Target: Name{ID: "lines"}, Value: Tuple{Elts: []Expr{Str{Value: "median"}}}},
			Assign{Target: Name{ID: "params"}, Value: Tuple{Elts: []Expr{
				Tuple{Elts: []Expr{Str{Value: "period"}, Int{Value: 14}}},
			}}},
			FunctionDef{Name: "__init__", Args: []string{"self"}, Body: []Stmt{
				ExprStmt{Expr: call(attr(self, "addminperiod"), attr(self, "p", "period"))},
			}},
			FunctionDef{Name: "next", Args: []string{"self"}, Body: []Stmt{
				Assign{Target: window, Value: call(Name{ID: "sorted"}, Call{
					Func:     attr(self, "data", "get"),
					Keywords: []Keyword{{Name: "size", Value: attr(self, "p", "period")}},
				})},
				Assign{Target: n, Value: call(Name{ID: "len"}, window)},
				Assign{Target: mid, Value: BinOp{Op: "//", Left: n, Right: Int{Value: 2}}},
				Assign{
					Target: Subscript{Value: attr(self, "lines", "median"), Index: Int{}},
					Value: IfExp{
						Cond: BinOp{Op: "==", Left: BinOp{Op: "%", Left: n, Right: Int{Value: 2}}, Right: Int{Value: 1}},
						Then: Subscript{Value: window, Index: mid},
						Else: BinOp{
							Op: "/",
							Left: BinOp{
								Op:    "+",
								Left:  Subscript{Value: window, Index: BinOp{Op: "-", Left: mid, Right: Int{Value: 1}}},
								Right: Subscript{Value: window, Index: mid},
							},
							Right: Num{Value: 2},
						},
					},
				},
			}},
		},
	}
}

// tradingMethods are the strategy methods shared by every generated strategy.
func tradingMethods() []Stmt {
	p := func(name string) Expr { return attr(self, "p", name) }
	hour := Name{ID: "hour"}
	move := Name{ID: "move"}
	size := attr(self, "position", "size")

	inWindow := FunctionDef{
		Name: "in_window",
		Args: []string{"self"},
		Doc:  "Equal hours trade around the clock.",
		Body: []Stmt{
			If{Cond: BinOp{Op: "==", Left: p("start_hour"), Right: p("end_hour")}, Body: []Stmt{Return{Value: Bool{Value: true}}}},
			Assign{Target: hour, Value: attr(call(attr(self, "data", "datetime", "time"), Int{}), "hour")},
			If{
				Cond: BinOp{Op: "<", Left: p("start_hour"), Right: p("end_hour")},
				Body: []Stmt{Return{Value: BoolOp{Op: "and", Values: []Expr{
					BinOp{Op: ">=", Left: hour, Right: p("start_hour")},
					BinOp{Op: "<", Left: hour, Right: p("end_hour")},
				}}}},
			},
			Return{Value: BoolOp{Op: "or", Values: []Expr{
				BinOp{Op: ">=", Left: hour, Right: p("start_hour")},
				BinOp{Op: "<", Left: hour, Right: p("end_hour")},
			}}},
		},
	}

	hitRisk := FunctionDef{
		Name: "hit_risk",
		Args: []string{"self"},
		Doc:  "Report whether the open position crossed its stop loss or take profit, in points.",
		Body: []Stmt{
			Assign{Target: move, Value: BinOp{
				Op:    "/",
				Left:  BinOp{Op: "-", Left: Subscript{Value: attr(self, "data", "close"), Index: Int{}}, Right: attr(self, "position", "price")},
				Right: p("point"),
			}},
			If{Cond: BinOp{Op: "<", Left: size, Right: Int{}}, Body: []Stmt{
				Assign{Target: move, Value: UnaryOp{Op: "-", Operand: move}},
			}},
			If{
				Cond: BoolOp{Op: "and", Values: []Expr{
					BinOp{Op: ">", Left: p("stop_loss"), Right: Int{}},
					BinOp{Op: "<=", Left: move, Right: UnaryOp{Op: "-", Operand: p("stop_loss")}},
				}},
				Body: []Stmt{Return{Value: Bool{Value: true}}},
			},
			Return{Value: BoolOp{Op: "and", Values: []Expr{
				BinOp{Op: ">", Left: p("take_profit"), Right: Int{}},
				BinOp{Op: ">=", Left: move, Right: p("take_profit")},
			}}},
		},
	}

	next := FunctionDef{
		Name: "next",
		Args: []string{"self"},
		Body: []Stmt{
			If{Cond: UnaryOp{Op: "not", Operand: call(attr(self, "in_window"))}, Body: []Stmt{Return{}}},
			If{Cond: attr(self, "position"), Body: []Stmt{
				If{
					Cond: BoolOp{Op: "or", Values: []Expr{
						BoolOp{Op: "and", Values: []Expr{BinOp{Op: ">", Left: size, Right: Int{}}, call(attr(self, "exit_long"))}},
						BoolOp{Op: "and", Values: []Expr{BinOp{Op: "<", Left: size, Right: Int{}}, call(attr(self, "exit_short"))}},
						call(attr(self, "hit_risk")),
					}},
					Body: []Stmt{ExprStmt{Expr: call(attr(self, "close"))}},
				},
				Return{},
			}},
			If{
				Cond: call(attr(self, "entry_long")),
				Body: []Stmt{ExprStmt{Expr: Call{Func: attr(self, "buy"), Keywords: []Keyword{{Name: "size", Value: p("size")}}}}},
				Else: []Stmt{If{
					Cond: call(attr(self, "entry_short")),
					Body: []Stmt{ExprStmt{Expr: Call{Func: attr(self, "sell"), Keywords: []Keyword{{Name: "size", Value: p("size")}}}}},
				}},
			},
		},
	}

	return []Stmt{next, inWindow, hitRisk}
}

package mql

import (
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/internal/codegen/render"
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"go.uber.org/zap"
)

// Generator emits one .mq5 expert advisor per program.
type Generator struct {
	log    *logger.Logger
	indent int
}

// NewGenerator creates a generator rendering with indent spaces per level.
func NewGenerator(log *logger.Logger, indent int) *Generator {
	return &Generator{log: log.Named("mql"), indent: indent}
}

func (g *Generator) Target() codegen.Target {
	return codegen.TargetMQL
}

// Emit lowers and renders a program.
func (g *Generator) Emit(program *ir.Program) (*codegen.Artifact, error) {
	tree, err := Lower(program)
	if err != nil {
		return nil, err
	}

	name := render.Pascal(render.Snake(program.Strategy.Name))
	content, err := render.Guard(func() string { return Render(tree, g.indent) })
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEmissionFailed, "mql: failed to render program", err)
	}

	g.log.Debug("emitted expert advisor",
		zap.String("strategy", program.Strategy.Name),
		zap.Int("classes", len(tree.Classes)),
		zap.Int("functions", len(tree.Functions)),
		zap.Int("bytes", len(content)),
	)

	return &codegen.Artifact{
		Target: codegen.TargetMQL,
		Files:  []codegen.File{{Name: name + ".mq5", Content: content}},
	}, nil
}

const (
	basePeriod = "ARGO_BASE_PERIOD"
	totalBars  = "totalBars"
	lastBars   = "m_lastBars"
)

// scope holds what differs between strategy code and indicator class code.
type scope struct {
	program *ir.Program
	index   Expr
	bars    Expr
	// def is nil at strategy level.
	def *ir.IndicatorDefinition
	// mirrors collects instance lines used as aggregation sources, in first-use order.
	mirrors *[]ir.InstanceSource
	// methods collects the aggregation methods called from this scope.
	methods map[template.AggregationMethod]bool
}

func (s *scope) at(index Expr) *scope {
	c := *s
	c.index = index

	return &c
}

// Lower converts a program into an MQL tree.
func Lower(p *ir.Program) (*Program, error) {
	if p == nil || p.Strategy == nil {
		return nil, errors.New(errors.ErrCodeEmissionFailed, "mql: program has no strategy")
	}

	out := &Program{
		Name: render.Pascal(render.Snake(p.Strategy.Name)),
		Properties: []Define{
			{Name: "description", Value: StringLit{Value: p.Strategy.Name}},
			{Name: "version", Value: StringLit{Value: "1.00"}},
		},
		Includes: []string{`Trade\Trade.mqh`},
	}

	out.Defines = defines(p)
	out.Inputs = inputs(p.Strategy.Settings)

	for _, def := range p.Indicators {
		class, err := lowerClass(p, def)
		if err != nil {
			return nil, err
		}

		out.Classes = append(out.Classes, class)
	}

	if err := lowerStrategy(p, out); err != nil {
		return nil, err
	}

	return out, nil
}

func defines(p *ir.Program) []Define {
	out := []Define{{Name: basePeriod, Value: Ident{Name: period(p.BaseTimeframe)}}}

	for _, s := range template.PriceSeriesList {
		out = append(out, Define{Name: seriesCode(s), Value: IntLit{Value: s.Code()}})
	}

	for _, m := range template.AggregationMethods {
		out = append(out, Define{Name: methodCode(m), Value: IntLit{Value: m.Code()}})
	}

	for _, def := range p.Indicators {
		for i, line := range def.Lines {
			out = append(out, Define{Name: lineCode(def.Name, line), Value: IntLit{Value: i}})
		}
	}

	return out
}

func inputs(s template.Settings) []Input {
	return []Input{
		{Type: "string", Name: "InpSymbol", Value: StringLit{Value: s.Environment.Symbol}, Comment: "empty trades the chart symbol"},
		{Type: "double", Name: "InpLots", Value: FloatLit{Value: s.Position.Size}},
		{Type: "double", Name: "InpStopLoss", Value: FloatLit{Value: s.Risk.StopLossPoints}, Comment: "points, 0 disables"},
		{Type: "double", Name: "InpTakeProfit", Value: FloatLit{Value: s.Risk.TakeProfitPoints}, Comment: "points, 0 disables"},
		{Type: "int", Name: "InpStartHour", Value: IntLit{Value: s.Timing.StartHour}},
		{Type: "int", Name: "InpEndHour", Value: IntLit{Value: s.Timing.EndHour}},
		{Type: "long", Name: "InpMagic", Value: IntLit{Value: int(s.Environment.Magic)}},
	}
}

func period(tf template.Timeframe) string {
	return "PERIOD_" + string(tf)
}

func seriesCode(s template.PriceSeries) string {
	return "ARGO_PRICE_" + render.Upper(string(s))
}

func methodCode(m template.AggregationMethod) string {
	return "ARGO_METHOD_" + render.Upper(string(m))
}

func lineCode(indicator, line string) string {
	return "ARGO_LINE_" + render.Upper(indicator) + "_" + render.Upper(line)
}

func className(indicator string) string {
	return "C" + render.Pascal(indicator)
}

func instanceVar(id string) string {
	return "g_" + id
}

func priceBuffer(def *ir.IndicatorDefinition, s template.PriceSeries) string {
	if def != nil {
		return "m_price_" + string(s)
	}

	return "g_price_" + string(s)
}

func variableBuffer(def *ir.IndicatorDefinition, name string) string {
	if def != nil {
		return "m_var_" + name
	}

	return "g_var_" + name
}

func mirrorBuffer(src ir.InstanceSource) string {
	return "g_line_" + src.InstanceID + "_" + src.Line
}

func paramMember(name string) string {
	return "m_" + name
}

// expandSeries adds the components of composite series, keeping canonical order.
func expandSeries(series []template.PriceSeries) []template.PriceSeries {
	used := map[template.PriceSeries]bool{}

	for _, s := range series {
		used[s] = true
		for _, c := range s.Components() {
			used[c] = true
		}
	}

	var out []template.PriceSeries

	for _, s := range template.PriceSeriesList {
		if used[s] {
			out = append(out, s)
		}
	}

	return out
}

// priceFunction returns the terminal function reading a base series at a bar.
func priceFunction(s template.PriceSeries, tf string, shift Expr) Expr {
	args := []Expr{Ident{Name: "g_symbol"}, Ident{Name: tf}, shift}

	switch s {
	case template.SeriesOpen:
		return Call{Func: "iOpen", Args: args}
	case template.SeriesHigh:
		return Call{Func: "iHigh", Args: args}
	case template.SeriesLow:
		return Call{Func: "iLow", Args: args}
	case template.SeriesVolume:
		return Cast{Type: "double", Operand: Call{Func: "iVolume", Args: args}}
	default:
		return Call{Func: "iClose", Args: args}
	}
}

// composite averages the component reads of a composite series.
func composite(s template.PriceSeries, read func(template.PriceSeries) Expr) Expr {
	components := s.Components()

	var sum Expr
	for _, c := range components {
		if sum == nil {
			sum = read(c)
		} else {
			sum = Binary{Op: "+", Left: sum, Right: read(c)}
		}
	}

	return Binary{Op: "/", Left: sum, Right: FloatLit{Value: float64(len(components))}}
}

// fillPrices refreshes price buffers from start down to the forming bar.
func fillPrices(def *ir.IndicatorDefinition, series []template.PriceSeries, start Expr) []Stmt {
	if len(series) == 0 {
		return nil
	}

	k := Ident{Name: "k"}

	var body []Stmt

	for _, s := range series {
		target := Index{Array: Ident{Name: priceBuffer(def, s)}, Index: k}

		var value Expr
		if s.Composite() {
			value = composite(s, func(c template.PriceSeries) Expr {
				return Index{Array: Ident{Name: priceBuffer(def, c)}, Index: k}
			})
		} else {
			value = priceFunction(s, basePeriod, k)
		}

		body = append(body, Assign{Target: target, Value: value})
	}

	return []Stmt{For{Var: "k", Init: start, Cond: Binary{Op: ">=", Left: k, Right: IntLit{}}, Post: "k--", Body: body}}
}

// shifted returns index+shift with literal folding.
func shifted(index Expr, shift Expr) Expr {
	if shift == nil {
		return index
	}

	if s, ok := shift.(IntLit); ok {
		if s.Value == 0 {
			return index
		}

		if i, ok := index.(IntLit); ok {
			return IntLit{Value: i.Value + s.Value}
		}
	}

	return Binary{Op: "+", Left: index, Right: shift}
}

func (s *scope) intExpr(e ir.Expression) (Expr, error) {
	if n, ok := ir.ConstantInt(e); ok {
		return IntLit{Value: n}, nil
	}

	v, err := s.expr(e)
	if err != nil {
		return nil, err
	}

	return Cast{Type: "int", Operand: v}, nil
}

func (s *scope) expr(e ir.Expression) (Expr, error) {
	switch x := e.(type) {
	case ir.Constant:
		return FloatLit{Value: x.Value}, nil
	case ir.ParamRef:
		if s.def == nil {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "mql: parameter %s outside an indicator", x.Name)
		}

		return Ident{Name: paramMember(x.Name)}, nil
	case ir.MethodLiteral:
		return Ident{Name: methodCode(x.Method)}, nil
	case ir.BarRef:
		return s.barRef(x)
	case ir.Aggregation:
		return s.aggregation(x)
	case ir.Unary:
		operand, err := s.expr(x.Operand)
		if err != nil {
			return nil, err
		}

		if x.Op == template.UnaryAbs {
			return Call{Func: "MathAbs", Args: []Expr{operand}}, nil
		}

		return Unary{Op: "-", Operand: operand}, nil
	case ir.Binary:
		left, err := s.expr(x.Left)
		if err != nil {
			return nil, err
		}

		right, err := s.expr(x.Right)
		if err != nil {
			return nil, err
		}

		switch x.Op {
		case template.BinaryMax:
			return Call{Func: "MathMax", Args: []Expr{left, right}}, nil
		case template.BinaryMin:
			return Call{Func: "MathMin", Args: []Expr{left, right}}, nil
		case template.BinaryAdd, template.BinarySub, template.BinaryMul, template.BinaryDiv:
			return Binary{Op: string(x.Op), Left: left, Right: right}, nil
		default:
			return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "mql: unsupported operator %s", x.Op)
		}
	case ir.Ternary:
		cond, err := s.condition(x.Condition)
		if err != nil {
			return nil, err
		}

		then, err := s.expr(x.Then)
		if err != nil {
			return nil, err
		}

		els, err := s.expr(x.Else)
		if err != nil {
			return nil, err
		}

		return Cond{Cond: cond, Then: then, Else: els}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "mql: unsupported expression %T", e)
	}
}

// barRef reads a source at index+shift. A non-zero shift is guarded against
// reading past the oldest bar.
func (s *scope) barRef(ref ir.BarRef) (Expr, error) {
	shift, err := s.intExpr(ref.Shift)
	if err != nil {
		return nil, err
	}

	at := shifted(s.index, shift)

	value, err := s.read(ref.Source, at)
	if err != nil {
		return nil, err
	}

	if ir.IsZero(ref.Shift) {
		return value, nil
	}

	fallback, err := s.expr(ref.Fallback)
	if err != nil {
		return nil, err
	}

	return Cond{Cond: Binary{Op: ">", Left: s.bars, Right: at}, Then: value, Else: fallback}, nil
}

func (s *scope) read(src ir.Source, at Expr) (Expr, error) {
	switch x := src.(type) {
	case ir.PriceSource:
		if x.Ratio <= 1 {
			return Index{Array: Ident{Name: priceBuffer(s.def, x.Series)}, Index: at}, nil
		}

		higher := Binary{Op: "/", Left: at, Right: IntLit{Value: x.Ratio}}
		if x.Series.Composite() {
			return composite(x.Series, func(c template.PriceSeries) Expr {
				return priceFunction(c, period(x.Timeframe), higher)
			}), nil
		}

		return priceFunction(x.Series, period(x.Timeframe), higher), nil
	case ir.VariableSource:
		buf := Ident{Name: variableBuffer(s.def, x.Name)}
		if x.Ratio <= 1 {
			return Index{Array: buf, Index: at}, nil
		}

		aligned := Binary{Op: "*", Left: Binary{Op: "/", Left: at, Right: IntLit{Value: x.Ratio}}, Right: IntLit{Value: x.Ratio}}

		return Index{Array: buf, Index: aligned}, nil
	case ir.SourceParam:
		if s.def == nil {
			return nil, errors.Newf(errors.ErrCodeUnresolvedReference, "mql: source %s outside an indicator", x.Name)
		}

		return Index{Array: Ident{Name: "m_src_" + x.Name}, Index: at}, nil
	case ir.InstanceSource:
		if s.def != nil {
			return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "mql: instance %s read inside indicator %s", x.InstanceID, s.def.Name)
		}

		return MethodCall{Recv: Ident{Name: instanceVar(x.InstanceID)}, Name: "Get", Args: []Expr{Ident{Name: lineCode(x.Indicator, x.Line)}, at}}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedSource, "mql: unsupported source %T", src)
	}
}

// array returns the buffer an aggregation scans.
func (s *scope) array(src ir.Source) (string, error) {
	switch x := src.(type) {
	case ir.PriceSource:
		if x.Ratio <= 1 {
			return priceBuffer(s.def, x.Series), nil
		}
	case ir.VariableSource:
		if x.Ratio <= 1 {
			return variableBuffer(s.def, x.Name), nil
		}
	case ir.SourceParam:
		if s.def != nil {
			return "m_src_" + x.Name, nil
		}
	case ir.InstanceSource:
		if s.def == nil {
			found := false
			for _, m := range *s.mirrors {
				found = found || m == x
			}

			if !found {
				*s.mirrors = append(*s.mirrors, x)
			}

			return mirrorBuffer(x), nil
		}
	}

	return "", errors.Newf(errors.ErrCodeUnsupportedSource, "mql: cannot aggregate over %#v", src)
}

func (s *scope) aggregation(agg ir.Aggregation) (Expr, error) {
	if _, ok := aggregationBodies[agg.Method]; !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedExpression, "mql: unsupported aggregation %s", agg.Method)
	}

	buf, err := s.array(agg.Source.Source)
	if err != nil {
		return nil, err
	}

	shift, err := s.intExpr(agg.Source.Shift)
	if err != nil {
		return nil, err
	}

	periodExpr, err := s.intExpr(agg.Period)
	if err != nil {
		return nil, err
	}

	s.methods[agg.Method] = true

	start := shifted(s.index, shift)
	call := Call{Func: helperName(agg.Method), Args: []Expr{Ident{Name: buf}, start, periodExpr, s.bars}}

	if agg.Fallback == nil {
		return call, nil
	}

	fallback, err := s.expr(agg.Fallback)
	if err != nil {
		return nil, err
	}

	enough := Binary{Op: ">=", Left: s.bars, Right: Binary{Op: "+", Left: start, Right: periodExpr}}

	return Cond{Cond: enough, Then: call, Else: fallback}, nil
}

var compareOps = map[template.CompareOp]string{
	template.CompareGT: ">", template.CompareGE: ">=",
	template.CompareLT: "<", template.CompareLE: "<=",
	template.CompareEQ: "==", template.CompareNE: "!=",
}

func (s *scope) condition(c ir.Condition) (Expr, error) {
	d, err := ir.Desugar(c)
	if err != nil {
		return nil, err
	}

	return s.desugared(d)
}

func (s *scope) desugared(c ir.Condition) (Expr, error) {
	switch x := c.(type) {
	case ir.Comparison:
		left, err := s.expr(x.Left)
		if err != nil {
			return nil, err
		}

		right, err := s.expr(x.Right)
		if err != nil {
			return nil, err
		}

		return Binary{Op: compareOps[x.Op], Left: left, Right: right}, nil
	case ir.Group:
		op := "&&"
		if x.Op == template.GroupOr {
			op = "||"
		}

		if len(x.Conditions) == 0 {
			return BoolLit{Value: x.Op == template.GroupAnd}, nil
		}

		var out Expr

		for _, sub := range x.Conditions {
			e, err := s.desugared(sub)
			if err != nil {
				return nil, err
			}

			if out == nil {
				out = e
			} else {
				out = Binary{Op: op, Left: out, Right: e}
			}
		}

		return out, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedCondition, "mql: unsupported condition %T", c)
	}
}

// assignVariable computes v into target, using its fallback chain while fewer
// than InvalidPeriod bars precede the index.
func (s *scope) assignVariable(target Expr, v *ir.Variable) ([]Stmt, error) {
	value, err := s.expr(v.Expr)
	if err != nil {
		return nil, err
	}

	compute := []Stmt{Assign{Target: target, Value: value}}
	if v.InvalidPeriod == nil {
		return compute, nil
	}

	invalid, err := s.intExpr(v.InvalidPeriod)
	if err != nil {
		return nil, err
	}

	fallback := []Stmt{Assign{Target: target, Value: FloatLit{}}}
	if v.Fallback != nil {
		if fallback, err = s.assignVariable(target, v.Fallback); err != nil {
			return nil, err
		}
	}

	position := Binary{Op: "-", Left: Binary{Op: "-", Left: s.bars, Right: IntLit{Value: 1}}, Right: s.index}

	return []Stmt{If{Cond: Binary{Op: "<", Left: position, Right: invalid}, Then: fallback, Else: compute}}, nil
}

func helpers(methods map[template.AggregationMethod]bool) []Function {
	var out []Function

	for _, m := range template.AggregationMethods {
		if methods[m] {
			out = append(out, aggregationHelper(m))
		}
	}

	return out
}

func resizeAll(buffers []string, size Expr) []Stmt {
	out := make([]Stmt, 0, len(buffers))
	for _, b := range buffers {
		out = append(out, ExprStmt{Expr: Call{Func: "ArrayResize", Args: []Expr{Ident{Name: b}, size}}})
	}

	return out
}

func seriesAll(buffers []string) []Stmt {
	out := make([]Stmt, 0, len(buffers))
	for _, b := range buffers {
		out = append(out, ExprStmt{Expr: Call{Func: "ArraySetAsSeries", Args: []Expr{Ident{Name: b}, BoolLit{Value: true}}}})
	}

	return out
}

// startIndex is the oldest bar to recompute: everything on the first call or
// after history shrank, otherwise the bars added since the last call plus the
// previously forming bar.
func startIndex(bars, last string) Expr {
	b := Ident{Name: bars}
	l := Ident{Name: last}

	reset := Binary{Op: "||", Left: Binary{Op: "==", Left: l, Right: IntLit{}}, Right: Binary{Op: "<", Left: b, Right: l}}

	return Cond{Cond: reset, Then: Binary{Op: "-", Left: b, Right: IntLit{Value: 1}}, Else: Binary{Op: "-", Left: b, Right: l}}
}

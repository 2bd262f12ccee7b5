package backtrader

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/internal/analyzer"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/stretchr/testify/suite"
)

type EmitterTestSuite struct {
	suite.Suite
	catalog   indicator.Catalog
	generator *Generator
}

func TestEmitterSuite(t *testing.T) {
	suite.Run(t, new(EmitterTestSuite))
}

func (suite *EmitterTestSuite) SetupTest() {
	suite.catalog = indicator.DefaultCatalog()
	suite.generator = NewGenerator(logger.NewNopLogger(), Options{})
}

func ma(period float64, method template.AggregationMethod) template.Expression {
	return template.Call(indicator.MovingAverageName, "ma",
		template.NumParam("period", template.Num(period)),
		template.MethodParam("method", method),
	)
}

func (suite *EmitterTestSuite) program(tpl *template.StrategyTemplate) *ir.Program {
	r := analyzer.Analyze(tpl, suite.catalog, analyzer.Options{})
	suite.Require().NoError(r.Err())

	p, err := ir.NewBuilder(logger.NewNopLogger()).Build(r, ir.Options{BaseTimeframe: template.TimeframeM15})
	suite.Require().NoError(err)

	return p
}

func (suite *EmitterTestSuite) emit(tpl *template.StrategyTemplate) (string, string) {
	artifact, err := suite.generator.Emit(suite.program(tpl))
	suite.Require().NoError(err)
	suite.Require().Len(artifact.Files, 2)

	return artifact.Files[0].Content, artifact.Files[1].Content
}

func smaStrategy() *template.StrategyTemplate {
	return &template.StrategyTemplate{
		Name: "sma_cross",
		Variables: []template.VariableDefinition{
			template.Define("fastSMA", ma(5, template.MethodSMA)),
		},
		Entries:  []template.Signal{{Name: "above", Side: template.SideLong, Condition: template.Gt(template.Price(template.SeriesClose), template.Var("fastSMA"))}},
		Exits:    []template.Signal{{Name: "below", Side: template.SideLong, Condition: template.Lt(template.Price(template.SeriesClose), template.Var("fastSMA"))}},
		Settings: template.DefaultSettings(),
	}
}

func crossStrategy() *template.StrategyTemplate {
	return &template.StrategyTemplate{
		Name: "CrossOver",
		Variables: []template.VariableDefinition{
			template.Define("fast", ma(5, template.MethodEMA)),
			template.Define("slow", ma(20, template.MethodSMA)),
			template.Define("spread", template.Sub(template.Var("fast"), template.Var("slow"))),
			template.Define("range", template.Agg(template.MethodStdDev, template.Price(template.SeriesHL2), template.Num(10))),
			template.Define("momentum", template.Sub(template.Price(template.SeriesClose), template.PriceAt(template.SeriesClose, 3, 0))),
		},
		Entries: []template.Signal{
			{Name: "golden", Side: template.SideLong, Condition: template.All(
				template.CrossesOver(template.Var("fast"), template.Var("slow")),
				template.Rising(template.Var("spread"), 2),
			)},
			{Name: "death", Side: template.SideShort, Condition: template.CrossesUnder(template.Var("fast"), template.Var("slow"))},
		},
		Exits: []template.Signal{
			{Name: "weak", Side: template.SideLong, Condition: template.Lt(template.VarAt("momentum", 2, 0), template.Agg(template.MethodMedian, template.Var("range"), template.Num(5)))},
		},
		Settings: template.DefaultSettings(),
	}
}

func rsiStrategy() *template.StrategyTemplate {
	return &template.StrategyTemplate{
		Name: "rsi_reversal",
		Variables: []template.VariableDefinition{
			template.Define("rsi", template.Call("rsi", "rsi", template.NumParam("period", template.Num(14)))),
			template.Define("atr", template.Call("atr", "atr")),
		},
		Entries: []template.Signal{
			{Name: "oversold", Side: template.SideLong, Condition: template.CrossesOver(template.Var("rsi"), template.Num(30))},
		},
		Exits: []template.Signal{
			{Name: "overbought", Side: template.SideLong, Condition: template.Gt(template.Var("rsi"), template.Num(70))},
		},
		Settings: template.DefaultSettings(),
	}
}

func (suite *EmitterTestSuite) TestSimpleMovingAverage() {
	artifact, err := suite.generator.Emit(suite.program(smaStrategy()))
	suite.Require().NoError(err)

	suite.Equal(codegen.TargetBacktrader, artifact.Target)
	suite.Require().Len(artifact.Files, 2)
	suite.Equal("sma_cross_strategy.py", artifact.Files[0].Name)
	suite.Equal("run_sma_cross.py", artifact.Files[1].Name)

	out := artifact.Files[0].Content
	suite.Contains(out, "import backtrader as bt")
	suite.Contains(out, "def _series(data, name):")
	suite.Contains(out, "class MovingAverage(bt.Indicator):")
	suite.Contains(out, "    lines = ('ma',)")
	suite.Contains(out, "    params = (('period', 0), ('source', 'close'), ('method', 'sma'))")
	suite.Contains(out, "        self.src_source = _series(self.data, self.p.source)")
	suite.Contains(out, "        self.v_ma = bt.indicators.SimpleMovingAverage(self.src_source, period=int(self.p.period)) if self.p.method == 'sma' else bt.indicators.SimpleMovingAverage(self.src_source, period=int(self.p.period))")
	suite.Contains(out, "        self.lines.ma = self.v_ma")
	suite.Contains(out, "        self.addminperiod(int(self.p.period - 1) + 1)")
	suite.Contains(out, "class SmaCrossStrategy(bt.Strategy):")
	suite.Contains(out, "        self.ind_moving_average_1 = MovingAverage(self.data, period=5, source='close', method='sma')")
	suite.Contains(out, "        self.v_fastSMA = self.ind_moving_average_1.lines.ma")
	suite.Contains(out, "        if self.data.close[0] > self.v_fastSMA[0]:")
	suite.Contains(out, "        if self.data.close[0] < self.v_fastSMA[0]:")
	suite.Contains(out, "    def entry_short(self):\n        return False")
	suite.NotContains(out, "class RollingMedian")

	driver := artifact.Files[1].Content
	suite.Contains(driver, "from sma_cross_strategy import SmaCrossStrategy")
	suite.Contains(driver, "cerebro.addstrategy(SmaCrossStrategy)")
	suite.Contains(driver, "DATA_PATH = 'data.csv'")
	suite.Contains(driver, "INITIAL_CAPITAL = 10000")
	suite.Contains(driver, "COMMISSION = None")
	suite.Contains(driver, "timeframe=bt.TimeFrame.Minutes, compression=15)")
	suite.Contains(driver, "cerebro.addanalyzer(bt.analyzers.TradeAnalyzer, _name='trades')")
	suite.Contains(driver, "cerebro.addanalyzer(bt.analyzers.Transactions, _name='transactions')")
	suite.NotContains(driver, "resampledata")
}

func (suite *EmitterTestSuite) TestDeterministic() {
	first, firstDriver := suite.emit(crossStrategy())

	for range 5 {
		again, againDriver := suite.emit(crossStrategy())
		suite.Equal(first, again)
		suite.Equal(firstDriver, againDriver)
	}
}

func (suite *EmitterTestSuite) TestCrossStrategy() {
	out, _ := suite.emit(crossStrategy())

	suite.Contains(out, "        self.px_hl2 = _series(self.data, 'hl2')")
	suite.Contains(out, "        self.v_spread = self.v_fast - self.v_slow")
	suite.Contains(out, "        self.v_range = bt.indicators.StandardDeviation(self.px_hl2, period=10)")
	suite.Contains(out, "        self.v_momentum = self.data.close - self.data.close(-3)")
	suite.Contains(out, "self.v_fast[0] > self.v_slow[0] and self.v_fast[-1] <= self.v_slow[-1]")
	suite.Contains(out, "self.v_fast[0] < self.v_slow[0] and self.v_fast[-1] >= self.v_slow[-1]")
	suite.Contains(out, "        self.agg_median_1 = RollingMedian(self.v_range, period=5)")
	suite.Contains(out, "        if self.v_momentum[-2] < self.agg_median_1[0]:")
	suite.Contains(out, "class RollingMedian(bt.Indicator):")
}

func (suite *EmitterTestSuite) TestDispatchChain() {
	out, _ := suite.emit(crossStrategy())

	suite.Contains(out, "if self.p.method == 'sma' else bt.indicators.ExponentialMovingAverage(self.src_source, period=int(self.p.period)) if self.p.method == 'ema' else bt.indicators.SimpleMovingAverage(")
	suite.Contains(out, "MovingAverage(self.data, period=5, source='close', method='ema')")
	suite.Contains(out, "MovingAverage(self.data, period=20, source='close', method='sma')")
}

func (suite *EmitterTestSuite) TestIdenticalAggregationsShareOneAttribute() {
	tpl := crossStrategy()
	tpl.Exits = append(tpl.Exits, template.Signal{
		Name:      "flat",
		Side:      template.SideShort,
		Condition: template.Gt(template.Var("momentum"), template.Agg(template.MethodMedian, template.Var("range"), template.Num(5))),
	})

	out, _ := suite.emit(tpl)
	suite.Contains(out, "self.agg_median_1 = ")
	suite.NotContains(out, "agg_median_2")
	suite.Contains(out, "        if self.v_momentum[0] > self.agg_median_1[0]:")
}

func (suite *EmitterTestSuite) TestAggregationsUseFrameworkIndicators() {
	for _, tpl := range []*template.StrategyTemplate{smaStrategy(), crossStrategy(), rsiStrategy()} {
		p := suite.program(tpl)

		out, err := Lower(p)
		suite.Require().NoError(err)

		content := Render(out, 4)
		for _, m := range p.Aggregations {
			suite.Contains(content, RenderExpr(primitives[m])+"(", "%s %s", tpl.Name, m)
		}
	}
}

func (suite *EmitterTestSuite) TestRelativeStrengthLines() {
	out, _ := suite.emit(rsiStrategy())

	suite.Contains(out, "        self.v_price = self.src_source")
	suite.Contains(out, "        self.v_gain = bt.If(self.v_change > 0, self.v_change, 0)")
	suite.Contains(out, "bt.DivByZero(self.v_avg_gain, self.v_avg_loss, zero=0)")
	suite.Contains(out, "bt.indicators.SmoothedMovingAverage(self.v_gain, period=int(self.p.period))")
	suite.Contains(out, "        self.lines.atr = self.v_atr")
	suite.Contains(out, "        self.addminperiod(int(self.p.period + 1) + 1)")
	suite.Contains(out, "        self.ind_rsi_1 = Rsi(self.data, period=14, source='close')")
}

func (suite *EmitterTestSuite) TestInstanceOverNonPriceSourceIsRejected() {
	tpl := smaStrategy()
	tpl.Variables = append(tpl.Variables, template.Define("smooth", template.Call(indicator.MovingAverageName, "ma",
		template.NumParam("period", template.Num(3)),
		template.SrcParam("source", template.Var("fastSMA")),
	)))

	_, err := suite.generator.Emit(suite.program(tpl))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnsupportedSource))
}

func (suite *EmitterTestSuite) TestHigherTimeframeUsesResampledFeed() {
	tpl := smaStrategy()
	tpl.Variables = append(tpl.Variables,
		template.VariableDefinition{Name: "hourly", Expression: template.PriceAt(template.SeriesClose, 1, 0), Timeframe: template.FixedTimeframe{Timeframe: template.TimeframeH1}},
		template.VariableDefinition{Name: "daily", Expression: template.PriceAt(template.SeriesHigh, 96, 0), Timeframe: template.FixedTimeframe{Timeframe: template.TimeframeD1}},
	)
	tpl.Entries[0].Condition = template.Gt(template.Var("hourly"), template.Var("daily"))

	out, driver := suite.emit(tpl)
	suite.Contains(out, "        self.v_hourly = self.datas[1].close()")
	suite.Contains(out, "        self.v_daily = self.datas[2].high(-1)()")
	suite.Contains(out, "        if self.v_hourly[0] > self.v_daily[0]:")
	suite.Contains(driver, "cerebro.resampledata(data, timeframe=bt.TimeFrame.Minutes, compression=60)")
	suite.Contains(driver, "cerebro.resampledata(data, timeframe=bt.TimeFrame.Days, compression=1)")
}

func (suite *EmitterTestSuite) TestSettingsBecomeParams() {
	tpl := smaStrategy()
	tpl.Settings.Risk = template.RiskSettings{StopLossPoints: 150, TakeProfitPoints: 300.5}
	tpl.Settings.Timing = template.TimingSettings{StartHour: 8, EndHour: 17}

	out, _ := suite.emit(tpl)
	suite.Contains(out, "    params = (('size', 1), ('stop_loss', 150), ('take_profit', 300.5), ('point', 0.0001), ('start_hour', 8), ('end_hour', 17))")
	suite.Contains(out, "    def hit_risk(self):")
	suite.Contains(out, "    def in_window(self):")
}

func (suite *EmitterTestSuite) TestDriverOptions() {
	generator := NewGenerator(logger.NewNopLogger(), Options{
		Indent:         2,
		DataFeedPath:   "bars/eurusd.csv",
		InitialCapital: 2500,
		Commission:     optional.Some(0.001),
	})

	artifact, err := generator.Emit(suite.program(smaStrategy()))
	suite.Require().NoError(err)

	driver := artifact.Files[1].Content
	suite.Contains(driver, "DATA_PATH = 'bars/eurusd.csv'")
	suite.Contains(driver, "INITIAL_CAPITAL = 2500")
	suite.Contains(driver, "COMMISSION = 0.001")
	suite.Contains(driver, "if COMMISSION is not None:\n    cerebro.broker.setcommission(commission=COMMISSION)")
}

func (suite *EmitterTestSuite) TestMissingStrategy() {
	_, err := suite.generator.Emit(&ir.Program{})
	suite.True(errors.HasCode(err, errors.ErrCodeEmissionFailed))
}

package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DocumentTestSuite struct {
	suite.Suite
}

func TestDocumentSuite(t *testing.T) {
	suite.Run(t, new(DocumentTestSuite))
}

const smaStrategyYAML = `
name: sma_cross
required_version: ">=0.6.0"
variables:
  - name: fastSMA
    expression:
      kind: indicator
      name: moving_average
      line: ma
      params:
        - name: period
          number: 5
        - name: source
          source: {kind: price, series: close}
        - name: method
          method: sma
  - name: trend
    timeframe: {higher: 2}
    expression:
      kind: aggregation
      method: ema
      source: {kind: price, series: hl2, shift: 1, fallback: 0}
      period: 20
entries:
  - name: buy
    side: long
    condition:
      kind: compare
      op: ">"
      left: {kind: price, series: close}
      right: {kind: variable, name: fastSMA}
exits:
  - name: sell
    side: long
    condition:
      kind: group
      op: or
      conditions:
        - kind: cross
          direction: under
          left: {kind: price, series: close}
          right: {kind: variable, name: fastSMA}
        - kind: change
          to: to_false
          precondition_bars: 2
          confirmation_bars: 1
          inner:
            kind: state
            state: rising
            bars: 3
            operand: {kind: variable, name: trend, shift: 1}
settings:
  position: {size: 0.5}
  environment: {symbol: EURUSD, timeframe: M15, magic: 42}
`

func (suite *DocumentTestSuite) TestDecodeStrategyYAML() {
	data, err := YAMLToJSON([]byte(smaStrategyYAML))
	suite.Require().NoError(err)

	tpl, err := DecodeStrategy(data)
	suite.Require().NoError(err)

	suite.Equal("sma_cross", tpl.Name)
	suite.Equal(">=0.6.0", tpl.RequiredVersion)
	suite.Require().Len(tpl.Variables, 2)

	call, ok := tpl.Variables[0].Expression.(IndicatorRef)
	suite.Require().True(ok)
	suite.Equal("moving_average", call.Name)
	suite.Equal("ma", call.Line)
	suite.Require().Len(call.Params, 3)
	suite.Equal(NumberArg{Value: Constant{Value: 5}}, call.Params[0].Value)
	suite.Equal(SourceArg{Value: PriceRef{Series: SeriesClose}}, call.Params[1].Value)
	suite.Equal(MethodArg{Method: MethodSMA}, call.Params[2].Value)

	suite.Equal(HigherTimeframe{Steps: 2}, tpl.Variables[1].Timeframe)
	agg, ok := tpl.Variables[1].Expression.(Aggregation)
	suite.Require().True(ok)
	suite.Equal(MethodSpec{Method: MethodEMA}, agg.Method)
	src, ok := agg.Source.(PriceRef)
	suite.Require().True(ok)
	suite.Equal(SeriesHL2, src.Series)
	suite.True(src.Shift.IsSome())

	suite.Require().Len(tpl.Entries, 1)
	suite.Equal(SideLong, tpl.Entries[0].Side)
	suite.IsType(Comparison{}, tpl.Entries[0].Condition)

	group, ok := tpl.Exits[0].Condition.(Group)
	suite.Require().True(ok)
	suite.Equal(GroupOr, group.Op)
	suite.Require().Len(group.Conditions, 2)
	change, ok := group.Conditions[1].(Change)
	suite.Require().True(ok)
	suite.Equal(ChangeToFalse, change.To)
	state, ok := change.Inner.(State)
	suite.Require().True(ok)
	ref, ok := state.Operand.(VariableRef)
	suite.Require().True(ok)
	suite.Equal(ValueArray, ref.Kind)

	suite.Equal(0.5, tpl.Settings.Position.Size)
	suite.Equal(TimeframeM15, tpl.Settings.Environment.Timeframe)
	suite.Equal(int64(42), tpl.Settings.Environment.Magic)
}

func (suite *DocumentTestSuite) TestDecodeIndicator() {
	data := []byte(`{
		"name": "smoothed",
		"params": [
			{"name": "period", "kind": "number", "required": true},
			{"name": "source", "kind": "source", "default": {"kind": "price", "series": "close"}},
			{"name": "method", "kind": "aggregation", "default": "ema", "options": ["sma", "ema"]}
		],
		"lines": ["value"],
		"variables": [
			{"name": "v", "expression": {"kind": "aggregation", "method_param": "method", "source": {"kind": "source", "name": "source"}, "period": {"kind": "param", "name": "period"}},
			 "invalid_period": {"kind": "param", "name": "period"},
			 "fallback": {"name": "v_fallback", "expression": {"kind": "source", "name": "source"}}}
		],
		"exports": [{"line": "value", "variable": "v"}]
	}`)

	tpl, err := DecodeIndicator(data)
	suite.Require().NoError(err)

	suite.Equal("smoothed", tpl.Name)
	suite.Require().Len(tpl.Params, 3)
	suite.True(tpl.Params[0].Required)
	suite.True(tpl.Params[0].Default.IsNone())
	suite.Equal(SourceArg{Value: PriceRef{Series: SeriesClose}}, tpl.Params[1].Default.Unwrap())
	suite.Equal(MethodArg{Method: MethodEMA}, tpl.Params[2].Default.Unwrap())
	suite.Equal([]AggregationMethod{MethodSMA, MethodEMA}, tpl.Params[2].Options)

	v := tpl.Variables[0]
	suite.Equal(MethodSpec{Param: "method"}, v.Expression.(Aggregation).Method)
	suite.True(v.InvalidPeriod.IsSome())
	suite.Require().NotNil(v.Fallback)
	suite.Equal(SourceRef{Name: "source"}, v.Fallback.Expression)
	suite.Equal([]Export{{Line: "value", Variable: "v"}}, tpl.Exports)
}

func (suite *DocumentTestSuite) TestDecodeErrors() {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "unknown expression kind",
			doc:  `{"variables": [{"name": "a", "expression": {"kind": "magic"}}]}`,
			msg:  `variables[0].expression: unknown expression kind "magic"`,
		},
		{
			name: "missing expression",
			doc:  `{"variables": [{"name": "a"}]}`,
			msg:  "variables[0].expression: expression is required",
		},
		{
			name: "bad side",
			doc:  `{"entries": [{"side": "up", "condition": {"kind": "compare", "op": ">", "left": 1, "right": 2}}]}`,
			msg:  "entries[0]: side must be long or short",
		},
		{
			name: "bad comparison",
			doc:  `{"exits": [{"side": "short", "condition": {"kind": "compare", "op": "=>", "left": 1, "right": 2}}]}`,
			msg:  `exits[0].condition: unknown comparison "=>"`,
		},
		{
			name: "ambiguous binding",
			doc:  `{"variables": [{"name": "a", "expression": {"kind": "indicator", "name": "ema", "params": [{"name": "period", "number": 3, "method": "sma"}]}}]}`,
			msg:  "exactly one of number, source or method",
		},
		{
			name: "bad timeframe",
			doc:  `{"variables": [{"name": "a", "expression": 1, "timeframe": "H2"}]}`,
			msg:  "variables[0].timeframe",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := DecodeStrategy([]byte(tt.doc))
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeDocumentParseFailed))
			suite.Contains(err.Error(), tt.msg)
		})
	}
}

func (suite *DocumentTestSuite) TestDecodeTimeframeForms() {
	doc := `{"variables": [
		{"name": "a", "expression": 1, "timeframe": "H1"},
		{"name": "b", "expression": 1, "timeframe": {"higher": 1, "of": "H1"}},
		{"name": "c", "expression": 1, "timeframe": {"variable": "b"}}
	]}`

	tpl, err := DecodeStrategy([]byte(doc))
	suite.Require().NoError(err)

	suite.Equal(FixedTimeframe{Timeframe: TimeframeH1}, tpl.Variables[0].Timeframe)
	suite.Equal(HigherTimeframe{Steps: 1, Of: FixedTimeframe{Timeframe: TimeframeH1}}, tpl.Variables[1].Timeframe)
	suite.Equal(VariableTimeframe{Variable: "b"}, tpl.Variables[2].Timeframe)
}

func (suite *DocumentTestSuite) TestLoadStrategyFile() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "strategy.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte(smaStrategyYAML), 0o600))

	tpl, err := LoadStrategyFile(path)
	suite.Require().NoError(err)
	suite.Equal("sma_cross", tpl.Name)

	_, err = LoadStrategyFile(filepath.Join(dir, "missing.json"))
	suite.Error(err)
}

func (suite *DocumentTestSuite) TestIsDocumentFile() {
	suite.True(IsDocumentFile("a.json"))
	suite.True(IsDocumentFile("a.YAML"))
	suite.True(IsDocumentFile("a.yml"))
	suite.False(IsDocumentFile("a.txt"))
}

package template

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
)

// ParamKind is the kind of value an indicator parameter accepts.
type ParamKind string

const (
	ParamNumber      ParamKind = "number"
	ParamSource      ParamKind = "source"
	ParamAggregation ParamKind = "aggregation"
)

// ParamDecl declares one indicator parameter.
type ParamDecl struct {
	Name     string
	Kind     ParamKind
	Required bool
	Default  optional.Option[Argument]
	// Options lists the selectable methods of an aggregation parameter.
	Options     []AggregationMethod
	Description string
}

// VariableDefinition is a named expression inside a template body.
type VariableDefinition struct {
	Name       string
	Expression Expression
	// InvalidPeriod is the number of leading bars for which the value is not meaningful.
	InvalidPeriod optional.Option[Expression]
	// Fallback is evaluated instead of Expression while InvalidPeriod has not elapsed.
	Fallback  *VariableDefinition
	Timeframe TimeframeExpr
}

// Export maps an output line to the internal variable that produces it.
type Export struct {
	Line     string
	Variable string
}

// IndicatorTemplate is a reusable, parameterized indicator definition.
type IndicatorTemplate struct {
	Name        string
	Description string
	Params      []ParamDecl
	Lines       []string
	Variables   []VariableDefinition
	Exports     []Export
}

// Param returns the declaration of the named parameter.
func (t *IndicatorTemplate) Param(name string) (ParamDecl, bool) {
	for _, p := range t.Params {
		if p.Name == name {
			return p, true
		}
	}

	return ParamDecl{}, false
}

// HasLine reports whether the template declares the output line.
func (t *IndicatorTemplate) HasLine(line string) bool {
	for _, l := range t.Lines {
		if l == line {
			return true
		}
	}

	return false
}

// Variable returns the named body variable.
func (t *IndicatorTemplate) Variable(name string) (*VariableDefinition, bool) {
	for i := range t.Variables {
		if t.Variables[i].Name == name {
			return &t.Variables[i], true
		}
	}

	return nil, false
}

// ExportFor returns the variable exported as line.
func (t *IndicatorTemplate) ExportFor(line string) (string, bool) {
	for _, e := range t.Exports {
		if e.Line == line {
			return e.Variable, true
		}
	}

	return "", false
}

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Signal is a named entry or exit condition for one side.
type Signal struct {
	Name      string
	Side      Side
	Condition Condition
}

// RiskSettings configures protective orders in points. Zero disables an order.
type RiskSettings struct {
	StopLossPoints   float64 `yaml:"stop_loss_points" json:"stop_loss_points" jsonschema:"title=Stop Loss,description=Stop loss distance in points,minimum=0" validate:"gte=0"`
	TakeProfitPoints float64 `yaml:"take_profit_points" json:"take_profit_points" jsonschema:"title=Take Profit,description=Take profit distance in points,minimum=0" validate:"gte=0"`
}

// PositionSettings configures order sizing.
type PositionSettings struct {
	Size float64 `yaml:"size" json:"size" jsonschema:"title=Size,description=Lots or units per order,minimum=0" validate:"required,gt=0"`
}

// TimingSettings restricts trading to an hour window. Equal hours mean no restriction.
type TimingSettings struct {
	StartHour int `yaml:"start_hour" json:"start_hour" jsonschema:"title=Start Hour,minimum=0,maximum=23" validate:"gte=0,lte=23"`
	EndHour   int `yaml:"end_hour" json:"end_hour" jsonschema:"title=End Hour,minimum=0,maximum=23" validate:"gte=0,lte=23"`
}

// EnvironmentSettings describes where the generated program runs.
type EnvironmentSettings struct {
	Symbol    string    `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol,description=Instrument symbol; empty means the chart symbol"`
	Timeframe Timeframe `yaml:"timeframe" json:"timeframe" jsonschema:"title=Timeframe,description=Base timeframe,enum=M1,enum=M5,enum=M15,enum=M30,enum=H1,enum=H4,enum=D1,enum=W1,enum=MN1" validate:"omitempty,oneof=M1 M5 M15 M30 H1 H4 D1 W1 MN1"`
	Magic     int64     `yaml:"magic" json:"magic" jsonschema:"title=Magic,description=Order tag used to recognize own positions,minimum=0" validate:"gte=0"`
}

// Settings is the configuration carried through to the generated program.
type Settings struct {
	Risk        RiskSettings        `yaml:"risk" json:"risk"`
	Position    PositionSettings    `yaml:"position" json:"position"`
	Timing      TimingSettings      `yaml:"timing" json:"timing"`
	Environment EnvironmentSettings `yaml:"environment" json:"environment"`
}

// DefaultSettings returns settings for one lot on the base timeframe with no restrictions.
func DefaultSettings() Settings {
	return Settings{
		Position: PositionSettings{Size: 1},
	}
}

// Validate validates the Settings struct.
func (s *Settings) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTemplate, "invalid strategy settings", err)
	}

	return nil
}

// StrategyTemplate is a complete trading strategy.
type StrategyTemplate struct {
	Name string
	// RequiredVersion is a semver constraint on the generator version. Empty accepts any.
	RequiredVersion string
	Variables       []VariableDefinition
	Entries         []Signal
	Exits           []Signal
	Settings        Settings
}

// Variable returns the named strategy variable.
func (t *StrategyTemplate) Variable(name string) (*VariableDefinition, bool) {
	for i := range t.Variables {
		if t.Variables[i].Name == name {
			return &t.Variables[i], true
		}
	}

	return nil, false
}

package compiler

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"gopkg.in/yaml.v3"
)

// Config controls which targets are emitted and how.
type Config struct {
	Targets          []codegen.Target         `yaml:"targets" json:"targets" jsonschema:"title=Targets,description=Backends to emit" default:"[\"mql\",\"backtrader\"]" validate:"required,min=1,dive,oneof=mql backtrader"`
	DefaultTimeframe template.Timeframe       `yaml:"default_timeframe" json:"default_timeframe" jsonschema:"title=Default Timeframe,description=Base timeframe when a strategy does not set one,enum=M1,enum=M5,enum=M15,enum=M30,enum=H1,enum=H4,enum=D1,enum=W1,enum=MN1" default:"M15" validate:"required,oneof=M1 M5 M15 M30 H1 H4 D1 W1 MN1"`
	MQLIndent        int                      `yaml:"mql_indent" json:"mql_indent" jsonschema:"title=MQL Indent,description=Spaces per indentation level in MQL output,minimum=1,maximum=8" default:"3" validate:"gte=1,lte=8"`
	PythonIndent     int                      `yaml:"python_indent" json:"python_indent" jsonschema:"title=Python Indent,description=Spaces per indentation level in Python output,minimum=1,maximum=8" default:"4" validate:"gte=1,lte=8"`
	AllowDiagnostics bool                     `yaml:"allow_diagnostics" json:"allow_diagnostics" jsonschema:"title=Allow Diagnostics,description=Emit code even when analysis reports problems"`
	DataFeedPath     string                   `yaml:"data_feed_path" json:"data_feed_path" jsonschema:"title=Data Feed Path,description=CSV file loaded by the generated backtest driver" default:"data.csv"`
	InitialCapital   float64                  `yaml:"initial_capital" json:"initial_capital" jsonschema:"title=Initial Capital,description=Starting cash of the generated backtest driver,minimum=0" default:"10000" validate:"gt=0"`
	Commission       optional.Option[float64] `yaml:"commission" json:"commission" jsonschema:"title=Commission,description=Optional broker commission rate of the generated backtest driver" validate:"omitempty,dive,gte=0"`
	HistoryPath      string                   `yaml:"history_path" json:"history_path" jsonschema:"title=History Path,description=DuckDB file recording compile runs; empty disables history"`
}

// yamlConfig mirrors Config with the optional commission as a pointer, which
// yaml.v3 can encode and decode.
type yamlConfig struct {
	Targets          []codegen.Target   `yaml:"targets"`
	DefaultTimeframe template.Timeframe `yaml:"default_timeframe"`
	MQLIndent        int                `yaml:"mql_indent"`
	PythonIndent     int                `yaml:"python_indent"`
	AllowDiagnostics bool               `yaml:"allow_diagnostics"`
	DataFeedPath     string             `yaml:"data_feed_path"`
	InitialCapital   float64            `yaml:"initial_capital"`
	Commission       *float64           `yaml:"commission,omitempty"`
	HistoryPath      string             `yaml:"history_path"`
}

// UnmarshalYAML implements custom unmarshaling for Config.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var config yamlConfig
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.Targets = config.Targets
	c.DefaultTimeframe = config.DefaultTimeframe
	c.MQLIndent = config.MQLIndent
	c.PythonIndent = config.PythonIndent
	c.AllowDiagnostics = config.AllowDiagnostics
	c.DataFeedPath = config.DataFeedPath
	c.InitialCapital = config.InitialCapital
	c.HistoryPath = config.HistoryPath

	if config.Commission != nil {
		c.Commission = optional.Some(*config.Commission)
	}

	return nil
}

// MarshalYAML implements custom marshaling for Config.
func (c Config) MarshalYAML() (interface{}, error) {
	config := yamlConfig{
		Targets:          c.Targets,
		DefaultTimeframe: c.DefaultTimeframe,
		MQLIndent:        c.MQLIndent,
		PythonIndent:     c.PythonIndent,
		AllowDiagnostics: c.AllowDiagnostics,
		DataFeedPath:     c.DataFeedPath,
		InitialCapital:   c.InitialCapital,
		HistoryPath:      c.HistoryPath,
	}

	if c.Commission.IsSome() {
		commission := c.Commission.Unwrap()
		config.Commission = &commission
	}

	return config, nil
}

// EmptyConfig returns a config with every default applied.
func EmptyConfig() Config {
	var c Config

	// the default tags are constant, so Set cannot fail here
	_ = defaults.Set(&c)

	return c
}

// LoadConfig reads a YAML config file, fills defaults for missing fields and validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML config content, fills defaults and validates it.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := defaults.Set(&c); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to apply config defaults", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "optional.Option[float64]") {
				return &jsonschema.Schema{Type: "number", Minimum: json.Number("0")}
			}

			if t == reflect.TypeOf(codegen.Target("")) {
				enum := make([]any, len(codegen.Targets))
				for i, target := range codegen.Targets {
					enum[i] = string(target)
				}

				return &jsonschema.Schema{Type: "string", Enum: enum}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "argo-codegen-config"
	schema.Description = "Configuration schema for argo-codegen"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON returns the JSON schema of the Config as a string.
func (c *Config) GenerateSchemaJSON() (string, error) {
	data, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(data), nil
}

package compiler

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestEmptyConfig() {
	config := EmptyConfig()

	suite.Equal([]codegen.Target{codegen.TargetMQL, codegen.TargetBacktrader}, config.Targets)
	suite.Equal(template.TimeframeM15, config.DefaultTimeframe)
	suite.Equal(3, config.MQLIndent)
	suite.Equal(4, config.PythonIndent)
	suite.False(config.AllowDiagnostics)
	suite.Equal("data.csv", config.DataFeedPath)
	suite.Equal(10000.0, config.InitialCapital)
	suite.True(config.Commission.IsNone())
	suite.Empty(config.HistoryPath)
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestParseComplete() {
	config, err := ParseConfig([]byte(`
targets: [backtrader]
default_timeframe: H1
mql_indent: 4
python_indent: 2
allow_diagnostics: true
data_feed_path: bars.csv
initial_capital: 50000
commission: 0.002
history_path: history.duckdb
`))
	suite.Require().NoError(err)

	suite.Equal([]codegen.Target{codegen.TargetBacktrader}, config.Targets)
	suite.Equal(template.TimeframeH1, config.DefaultTimeframe)
	suite.Equal(4, config.MQLIndent)
	suite.Equal(2, config.PythonIndent)
	suite.True(config.AllowDiagnostics)
	suite.Equal("bars.csv", config.DataFeedPath)
	suite.Equal(50000.0, config.InitialCapital)
	suite.True(config.Commission.IsSome())
	suite.Equal(0.002, config.Commission.Unwrap())
	suite.Equal("history.duckdb", config.HistoryPath)
}

func (suite *ConfigTestSuite) TestMarshalYAML() {
	config := EmptyConfig()

	data, err := yaml.Marshal(config)
	suite.Require().NoError(err)
	suite.NotContains(string(data), "commission")
	suite.Contains(string(data), "default_timeframe: M15")

	config.Commission = optional.Some(0.001)

	data, err = yaml.Marshal(config)
	suite.Require().NoError(err)
	suite.Contains(string(data), "commission: 0.001")

	parsed, err := ParseConfig(data)
	suite.Require().NoError(err)
	suite.Equal(config, parsed)
}

func (suite *ConfigTestSuite) TestParseFillsDefaults() {
	config, err := ParseConfig([]byte("allow_diagnostics: true\n"))
	suite.Require().NoError(err)

	suite.True(config.AllowDiagnostics)
	suite.Equal(EmptyConfig().Targets, config.Targets)
	suite.Equal(template.TimeframeM15, config.DefaultTimeframe)
	suite.True(config.Commission.IsNone())
}

func (suite *ConfigTestSuite) TestParseInvalid() {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown target", "targets: [pine]\n"},
		{"unknown timeframe", "default_timeframe: M2\n"},
		{"indent too wide", "mql_indent: 12\n"},
		{"negative commission", "commission: -1\n"},
		{"negative capital", "initial_capital: -5\n"},
		{"malformed yaml", "targets: [mql\n"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			_, err := ParseConfig([]byte(tt.yaml))
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *ConfigTestSuite) TestLoadConfig() {
	path := filepath.Join(suite.T().TempDir(), "codegen.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("targets: [mql]\n"), 0644))

	config, err := LoadConfig(path)
	suite.Require().NoError(err)
	suite.Equal([]codegen.Target{codegen.TargetMQL}, config.Targets)

	_, err = LoadConfig(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := EmptyConfig()
	schemaJSON, err := config.GenerateSchemaJSON()
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schemaJSON), &result))
	suite.Equal("argo-codegen-config", result["title"])

	properties, ok := result["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "targets")
	suite.Contains(properties, "default_timeframe")

	commission, ok := properties["commission"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("number", commission["type"])
}

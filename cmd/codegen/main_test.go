package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CodegenCmdTestSuite struct {
	suite.Suite
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func TestCodegenCmdSuite(t *testing.T) {
	suite.Run(t, new(CodegenCmdTestSuite))
}

func (suite *CodegenCmdTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.stdout = new(bytes.Buffer)
	suite.stderr = new(bytes.Buffer)
}

func (suite *CodegenCmdTestSuite) run(args ...string) error {
	suite.stdout.Reset()
	suite.stderr.Reset()

	return newApp(suite.stdout, suite.stderr).Run(context.Background(), append([]string{"codegen"}, args...))
}

func (suite *CodegenCmdTestSuite) write(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

const smaStrategyYAML = `
name: sma_cross
variables:
  - name: fastSMA
    expression:
      kind: indicator
      name: moving_average
      line: ma
      params:
        - name: period
          number: 5
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
      kind: compare
      op: "<"
      left: {kind: price, series: close}
      right: {kind: variable, name: fastSMA}
`

// missingPeriodYAML calls moving_average without its required period.
const missingPeriodYAML = `
name: broken
variables:
  - name: fastSMA
    expression: {kind: indicator, name: moving_average, line: ma}
entries:
  - name: buy
    side: long
    condition:
      kind: compare
      op: ">"
      left: {kind: price, series: close}
      right: {kind: variable, name: fastSMA}
`

const momentumYAML = `
name: momentum
description: Close minus the close period bars ago
params:
  - name: period
    kind: number
    default: 10
lines: [value]
variables:
  - name: value
    expression:
      kind: binary
      op: "-"
      left: {kind: price, series: close}
      right: {kind: price, series: close, shift: {kind: param, name: period}, fallback: 0}
exports:
  - line: value
    variable: value
`

func (suite *CodegenCmdTestSuite) TestCompileWritesEveryTarget() {
	strategy := suite.write("sma.yaml", smaStrategyYAML)
	out := filepath.Join(suite.dir, "build")

	suite.Require().NoError(suite.run("compile", "--out", out, strategy))

	for _, path := range []string{
		filepath.Join(out, "mql", "SmaCross.mq5"),
		filepath.Join(out, "backtrader", "sma_cross_strategy.py"),
		filepath.Join(out, "backtrader", "run_sma_cross.py"),
	} {
		suite.FileExists(path)
		suite.Contains(suite.stdout.String(), path)
	}

	content, err := os.ReadFile(filepath.Join(out, "backtrader", "sma_cross_strategy.py"))
	suite.Require().NoError(err)
	suite.Contains(string(content), "class SmaCrossStrategy(bt.Strategy):")
}

func (suite *CodegenCmdTestSuite) TestCompileTargetFlag() {
	strategy := suite.write("sma.yaml", smaStrategyYAML)
	out := filepath.Join(suite.dir, "build")

	suite.Require().NoError(suite.run("compile", "--out", out, "--target", "mql", strategy))

	suite.FileExists(filepath.Join(out, "mql", "SmaCross.mq5"))
	suite.NoDirExists(filepath.Join(out, "backtrader"))
}

func (suite *CodegenCmdTestSuite) TestCompileUnknownTarget() {
	strategy := suite.write("sma.yaml", smaStrategyYAML)

	err := suite.run("compile", "--out", suite.dir, "--target", "pine", strategy)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *CodegenCmdTestSuite) TestCompileConfigFile() {
	strategy := suite.write("sma.yaml", smaStrategyYAML)
	config := suite.write("codegen.yaml", "targets: [backtrader]\ndata_feed_path: bars.csv\n")
	out := filepath.Join(suite.dir, "build")

	suite.Require().NoError(suite.run("--config", config, "compile", "--out", out, strategy))

	suite.NoDirExists(filepath.Join(out, "mql"))

	content, err := os.ReadFile(filepath.Join(out, "backtrader", "run_sma_cross.py"))
	suite.Require().NoError(err)
	suite.Contains(string(content), "DATA_PATH = 'bars.csv'")
}

func (suite *CodegenCmdTestSuite) TestCompileReportsDiagnostics() {
	strategy := suite.write("broken.yaml", missingPeriodYAML)
	out := filepath.Join(suite.dir, "build")

	err := suite.run("compile", "--out", out, strategy)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeEmissionFailed))
	suite.Contains(suite.stderr.String(), "broken.yaml: 1 problem(s)")
	suite.NoDirExists(out)
}

func (suite *CodegenCmdTestSuite) TestCompileContinuesAfterFailure() {
	good := suite.write("sma.yaml", smaStrategyYAML)
	bad := suite.write("broken.yaml", missingPeriodYAML)
	out := filepath.Join(suite.dir, "build")

	err := suite.run("compile", "--out", out, bad, good)
	suite.Error(err)
	suite.Contains(err.Error(), "1 of 2 strategies failed")
	suite.FileExists(filepath.Join(out, "mql", "SmaCross.mq5"))
}

func (suite *CodegenCmdTestSuite) TestCompileRequiresFiles() {
	err := suite.run("compile")
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *CodegenCmdTestSuite) TestCompileWithExtraIndicators() {
	suite.write("indicators/momentum.yaml", momentumYAML)
	strategy := suite.write("mom.yaml", `
name: mom
variables:
  - name: m
    expression: {kind: indicator, name: momentum, line: value}
entries:
  - name: buy
    side: long
    condition: {kind: compare, op: ">", left: {kind: variable, name: m}, right: {kind: constant, value: 0}}
exits:
  - name: sell
    side: long
    condition: {kind: compare, op: "<", left: {kind: variable, name: m}, right: {kind: constant, value: 0}}
`)
	out := filepath.Join(suite.dir, "build")

	err := suite.run("--indicators", filepath.Join(suite.dir, "indicators"), "compile", "--out", out, "--target", "mql", strategy)
	suite.Require().NoError(err)
	suite.FileExists(filepath.Join(out, "mql", "Mom.mq5"))
}

func (suite *CodegenCmdTestSuite) TestHistory() {
	strategy := suite.write("sma.yaml", smaStrategyYAML)
	history := filepath.Join(suite.dir, "history.duckdb")
	out := filepath.Join(suite.dir, "build")

	suite.Require().NoError(suite.run("compile", "--out", out, "--history", history, strategy))
	suite.Require().NoError(suite.run("compile", "--out", out, "--history", history, strategy))

	suite.Require().NoError(suite.run("history", "list", "--history", history, "--strategy", "sma_cross"))
	suite.Contains(suite.stdout.String(), "sma_cross")
	suite.Contains(suite.stdout.String(), "mql, backtrader")

	suite.Require().NoError(suite.run("history", "list", "--history", history, "--strategy", "other"))
	suite.NotContains(suite.stdout.String(), "sma_cross")

	exported := filepath.Join(suite.dir, "export")
	suite.Require().NoError(suite.run("history", "export", "--history", history, exported))
	suite.FileExists(filepath.Join(exported, "runs.parquet"))
	suite.FileExists(filepath.Join(exported, "files.parquet"))
}

func (suite *CodegenCmdTestSuite) TestHistoryShowUnknownRun() {
	history := filepath.Join(suite.dir, "history.duckdb")

	err := suite.run("history", "show", "--history", history, "missing")
	suite.True(errors.HasCode(err, errors.ErrCodeStoreQueryFailed))

	err = suite.run("history", "list")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *CodegenCmdTestSuite) TestCheck() {
	good := suite.write("sma.yaml", smaStrategyYAML)
	suite.Require().NoError(suite.run("check", good))
	suite.Contains(suite.stdout.String(), "ok "+good)

	bad := suite.write("broken.yaml", missingPeriodYAML)
	err := suite.run("check", good, bad)
	suite.True(errors.HasCode(err, errors.ErrCodeValidationFailed))
	suite.Contains(suite.stdout.String(), "broken.yaml: 1 problem(s)")
	suite.Contains(suite.stdout.String(), "period")
}

func (suite *CodegenCmdTestSuite) TestCheckIndicator() {
	path := suite.write("momentum.yaml", momentumYAML)

	suite.Require().NoError(suite.run("check", "--indicator", path))
	suite.Contains(suite.stdout.String(), "ok "+path)
}

func (suite *CodegenCmdTestSuite) TestIndicators() {
	suite.Require().NoError(suite.run("indicators"))
	suite.Contains(suite.stdout.String(), "moving_average")
	suite.Contains(suite.stdout.String(), "rsi")

	suite.Require().NoError(suite.run("indicators", "moving_average"))
	suite.Contains(suite.stdout.String(), "period")
	suite.Contains(suite.stdout.String(), "required")

	suite.Error(suite.run("indicators", "nope"))
}

func (suite *CodegenCmdTestSuite) TestIndicatorsDirectory() {
	suite.write("indicators/momentum.yaml", momentumYAML)

	suite.Require().NoError(suite.run("--indicators", filepath.Join(suite.dir, "indicators"), "indicators"))
	suite.Contains(suite.stdout.String(), "momentum")
	suite.Contains(suite.stdout.String(), "Close minus the close period bars ago")
}

func (suite *CodegenCmdTestSuite) TestSchema() {
	suite.Require().NoError(suite.run("schema"))

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal(suite.stdout.Bytes(), &schema))
	suite.Equal("argo-codegen-config", schema["title"])

	suite.Require().NoError(suite.run("schema", "--settings"))
	suite.Require().NoError(json.Unmarshal(suite.stdout.Bytes(), &schema))
	suite.Contains(schema, "properties")
}

func (suite *CodegenCmdTestSuite) TestExamplesCompile() {
	strategies, err := filepath.Glob(filepath.Join("..", "..", "examples", "strategies", "*.yaml"))
	suite.Require().NoError(err)
	suite.Require().NotEmpty(strategies)

	out := filepath.Join(suite.dir, "build")
	args := []string{
		"--config", filepath.Join("..", "..", "examples", "codegen.yaml"),
		"--indicators", filepath.Join("..", "..", "examples", "indicators"),
		"compile", "--out", out,
	}

	suite.Require().NoError(suite.run(append(args, strategies...)...))
	suite.FileExists(filepath.Join(out, "mql", "SmaCrossover.mq5"))
	suite.FileExists(filepath.Join(out, "backtrader", "run_rsi_momentum.py"))
}

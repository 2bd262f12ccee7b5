package compiler

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/internal/store"
	"github.com/rxtech-lab/argo-codegen/mocks"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CompilerTestSuite struct {
	suite.Suite
	catalog indicator.Catalog
}

func TestCompilerSuite(t *testing.T) {
	suite.Run(t, new(CompilerTestSuite))
}

func (suite *CompilerTestSuite) SetupTest() {
	suite.catalog = indicator.DefaultCatalog()
}

func (suite *CompilerTestSuite) compiler(config Config) *Compiler {
	c, err := New(suite.catalog, config, logger.NewNopLogger())
	suite.Require().NoError(err)

	return c
}

func smaStrategy() *template.StrategyTemplate {
	ma := template.Call(indicator.MovingAverageName, "ma",
		template.NumParam("period", template.Num(5)),
		template.MethodParam("method", template.MethodSMA),
	)

	return &template.StrategyTemplate{
		Name: "sma_cross",
		Variables: []template.VariableDefinition{
			template.Define("fastSMA", ma),
		},
		Entries:  []template.Signal{{Name: "above", Side: template.SideLong, Condition: template.Gt(template.Price(template.SeriesClose), template.Var("fastSMA"))}},
		Exits:    []template.Signal{{Name: "below", Side: template.SideLong, Condition: template.Lt(template.Price(template.SeriesClose), template.Var("fastSMA"))}},
		Settings: template.DefaultSettings(),
	}
}

func (suite *CompilerTestSuite) TestCompileEveryTarget() {
	result, err := suite.compiler(EmptyConfig()).Compile(context.Background(), smaStrategy())
	suite.Require().NoError(err)

	_, err = uuid.Parse(result.RunID)
	suite.NoError(err)
	suite.Empty(result.Diagnostics)
	suite.Equal(template.TimeframeM15, result.Program.BaseTimeframe)
	suite.Require().Len(result.Artifacts, 2)

	mqlArtifact, ok := result.Artifact(codegen.TargetMQL)
	suite.Require().True(ok)
	suite.Require().Len(mqlArtifact.Files, 1)
	suite.Equal("SmaCross.mq5", mqlArtifact.Files[0].Name)

	btArtifact, ok := result.Artifact(codegen.TargetBacktrader)
	suite.Require().True(ok)
	suite.Require().Len(btArtifact.Files, 2)
	suite.Contains(btArtifact.Files[1].Content, "DATA_PATH = 'data.csv'")
}

func (suite *CompilerTestSuite) TestTargetSubsetAndIndent() {
	config := EmptyConfig()
	config.Targets = []codegen.Target{codegen.TargetBacktrader}
	config.PythonIndent = 2

	result, err := suite.compiler(config).Compile(context.Background(), smaStrategy())
	suite.Require().NoError(err)
	suite.Require().Len(result.Artifacts, 1)
	suite.Equal(codegen.TargetBacktrader, result.Artifacts[0].Target)
	suite.Contains(result.Artifacts[0].Files[0].Content, "\n  def __init__(self):\n")

	_, ok := result.Artifact(codegen.TargetMQL)
	suite.False(ok)
}

func (suite *CompilerTestSuite) TestDiagnosticsBlockEmission() {
	tpl := smaStrategy()
	tpl.Variables[0] = template.Define("fastSMA", template.Call(indicator.MovingAverageName, "ma"))

	result, err := suite.compiler(EmptyConfig()).Compile(context.Background(), tpl)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeValidationFailed))
	suite.Require().NotNil(result)
	suite.Empty(result.Artifacts)
	suite.Require().NotEmpty(result.Diagnostics)
	suite.Equal(errors.ErrCodeMissingParameter, result.Diagnostics[0].Code)
}

func (suite *CompilerTestSuite) TestUnknownOutputLineIsReported() {
	tpl := smaStrategy()
	tpl.Variables[0] = template.Define("fastSMA", template.Call(indicator.MovingAverageName, "signal",
		template.NumParam("period", template.Num(5)),
	))

	result, err := suite.compiler(EmptyConfig()).Compile(context.Background(), tpl)
	suite.True(errors.HasCode(err, errors.ErrCodeValidationFailed))
	suite.Require().NotEmpty(result.Diagnostics)
	suite.Equal(errors.ErrCodeUnknownOutputLine, result.Diagnostics[0].Code)
}

func (suite *CompilerTestSuite) TestCheckIndicator() {
	c := suite.compiler(EmptyConfig())

	suite.False(c.CheckIndicator(indicator.NewRSI()).HasDiagnostics())

	broken := &template.IndicatorTemplate{
		Name:      "broken",
		Lines:     []string{"out"},
		Variables: []template.VariableDefinition{template.Define("x", template.Var("missing"))},
		Exports:   []template.Export{{Line: "out", Variable: "x"}},
	}
	suite.True(c.CheckIndicator(broken).HasDiagnostics())
}

func (suite *CompilerTestSuite) TestAllowDiagnostics() {
	tpl := smaStrategy()
	tpl.Settings.Position.Size = 0

	config := EmptyConfig()
	config.AllowDiagnostics = true

	result, err := suite.compiler(config).Compile(context.Background(), tpl)
	suite.Require().NoError(err)
	suite.NotEmpty(result.Diagnostics)
	suite.Len(result.Artifacts, 2)
}

func (suite *CompilerTestSuite) TestIncompatibleVersion() {
	tpl := smaStrategy()
	tpl.RequiredVersion = "^99.0"

	_, err := suite.compiler(EmptyConfig()).Compile(context.Background(), tpl)
	suite.True(errors.HasCode(err, errors.ErrCodeIncompatibleVersion))
}

func (suite *CompilerTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.compiler(EmptyConfig()).Compile(ctx, smaStrategy())
	suite.ErrorIs(err, context.Canceled)
}

func (suite *CompilerTestSuite) TestInvalidConfig() {
	config := EmptyConfig()
	config.Targets = []codegen.Target{"pine"}

	_, err := New(suite.catalog, config, logger.NewNopLogger())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *CompilerTestSuite) TestHistoryIsRecorded() {
	ctrl := gomock.NewController(suite.T())
	history := mocks.NewMockArtifactStore(ctrl)

	var saved store.Run

	var files []store.File

	history.EXPECT().SaveRun(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, run store.Run, f []store.File) error {
			saved, files = run, f

			return nil
		})

	result, err := suite.compiler(EmptyConfig()).WithHistory(history).Compile(context.Background(), smaStrategy())
	suite.Require().NoError(err)

	suite.Equal(result.RunID, saved.ID)
	suite.Equal("sma_cross", saved.Strategy)
	suite.Equal([]string{"mql", "backtrader"}, saved.Targets)
	suite.Require().Len(files, 3)
	suite.Equal("SmaCross.mq5", files[0].Name)
	suite.Equal("backtrader", files[2].Target)
}

func (suite *CompilerTestSuite) TestHistoryFailureIsReturned() {
	ctrl := gomock.NewController(suite.T())
	history := mocks.NewMockArtifactStore(ctrl)
	history.EXPECT().SaveRun(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New(errors.ErrCodeStoreWriteFailed, "disk full"))

	_, err := suite.compiler(EmptyConfig()).WithHistory(history).Compile(context.Background(), smaStrategy())
	suite.True(errors.HasCode(err, errors.ErrCodeStoreWriteFailed))
}

func (suite *CompilerTestSuite) TestConcurrentCompiles() {
	c := suite.compiler(EmptyConfig())

	want, err := c.Compile(context.Background(), smaStrategy())
	suite.Require().NoError(err)

	const workers = 8

	results := make([]*Result, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], errs[i] = c.Compile(context.Background(), smaStrategy())
		}()
	}

	wg.Wait()

	ids := map[string]bool{}

	for i := range workers {
		suite.Require().NoError(errs[i])
		ids[results[i].RunID] = true

		for j, a := range results[i].Artifacts {
			suite.Equal(want.Artifacts[j].Files, a.Files)
		}
	}

	suite.Len(ids, workers)
}

// Package compiler runs the full pipeline: analysis, lowering to the shared
// representation and emission for every configured target.
package compiler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-codegen/internal/analyzer"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/internal/codegen/backtrader"
	"github.com/rxtech-lab/argo-codegen/internal/codegen/mql"
	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/internal/ir"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/internal/store"
	"github.com/rxtech-lab/argo-codegen/internal/version"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"go.uber.org/zap"
)

// Result is the outcome of one compile.
type Result struct {
	RunID string
	// Diagnostics are the problems analysis found. They are set even when the
	// compile is refused because of them.
	Diagnostics []analyzer.Diagnostic
	Program     *ir.Program
	// Artifacts follow the configured target order.
	Artifacts []*codegen.Artifact
}

// Artifact returns the artifact of a target.
func (r *Result) Artifact(target codegen.Target) (*codegen.Artifact, bool) {
	for _, a := range r.Artifacts {
		if a.Target == target {
			return a, true
		}
	}

	return nil, false
}

// Compiler turns strategy templates into target programs. A Compiler only reads
// its catalog, so one instance may serve concurrent compiles.
type Compiler struct {
	catalog  indicator.Catalog
	config   Config
	log      *logger.Logger
	builder  *ir.Builder
	emitters []codegen.Emitter
	history  optional.Option[store.ArtifactStore]
}

// New creates a compiler for a validated config.
func New(catalog indicator.Catalog, config Config, log *logger.Logger) (*Compiler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	log = log.Named("compiler")

	c := &Compiler{
		catalog: catalog,
		config:  config,
		log:     log,
		builder: ir.NewBuilder(log),
	}

	for _, target := range config.Targets {
		switch target {
		case codegen.TargetMQL:
			c.emitters = append(c.emitters, mql.NewGenerator(log, config.MQLIndent))
		case codegen.TargetBacktrader:
			c.emitters = append(c.emitters, backtrader.NewGenerator(log, backtrader.Options{
				Indent:         config.PythonIndent,
				DataFeedPath:   config.DataFeedPath,
				InitialCapital: config.InitialCapital,
				Commission:     config.Commission,
			}))
		default:
			return nil, errors.Newf(errors.ErrCodeUnsupportedTarget, "unsupported target %q", target)
		}
	}

	return c, nil
}

// WithHistory records every successful compile in s.
func (c *Compiler) WithHistory(s store.ArtifactStore) *Compiler {
	c.history = optional.Some(s)

	return c
}

// Config returns the compiler's config.
func (c *Compiler) Config() Config {
	return c.config
}

// Check analyzes a strategy without emitting anything.
func (c *Compiler) Check(tpl *template.StrategyTemplate) *analyzer.Result {
	return analyzer.Analyze(tpl, c.catalog, analyzer.Options{})
}

// CheckIndicator analyzes an indicator template against the catalog.
func (c *Compiler) CheckIndicator(tpl *template.IndicatorTemplate) *analyzer.Result {
	return analyzer.AnalyzeIndicator(tpl, c.catalog, analyzer.Options{})
}

// Compile analyzes, lowers and emits a strategy for every configured target.
// When analysis reports diagnostics and the config does not allow them, the
// returned result carries the diagnostics and the error has ErrCodeValidationFailed.
func (c *Compiler) Compile(ctx context.Context, tpl *template.StrategyTemplate) (*Result, error) {
	if tpl == nil {
		return nil, errors.New(errors.ErrCodeInvalidTemplate, "strategy template is nil")
	}

	result := &Result{RunID: uuid.NewString()}
	log := c.log.With(zap.String("run", result.RunID), zap.String("strategy", tpl.Name))

	if err := version.CheckVersionCompatibility(version.GetVersion(), tpl.RequiredVersion); err != nil {
		return result, errors.Wrap(errors.ErrCodeIncompatibleVersion, "strategy requires another generator version", err)
	}

	analysis := c.Check(tpl)
	result.Diagnostics = analysis.Diagnostics

	if analysis.HasDiagnostics() {
		for _, d := range analysis.Diagnostics {
			log.Warn("diagnostic", zap.String("path", d.Path), zap.String("message", d.Message), zap.Int("code", int(d.Code)))
		}

		if !c.config.AllowDiagnostics {
			return result, errors.Wrap(errors.ErrCodeValidationFailed, "refusing to emit a strategy with diagnostics", analysis.Err())
		}
	}

	program, err := c.builder.Build(analysis, ir.Options{BaseTimeframe: c.config.DefaultTimeframe})
	if err != nil {
		return result, err
	}

	result.Program = program

	for _, emitter := range c.emitters {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		artifact, err := emitter.Emit(program)
		if err != nil {
			return result, err
		}

		result.Artifacts = append(result.Artifacts, artifact)
	}

	if c.history.IsSome() {
		if err := c.record(ctx, tpl, result); err != nil {
			return result, err
		}
	}

	log.Info("compiled strategy",
		zap.Int("targets", len(result.Artifacts)),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.String("timeframe", string(program.BaseTimeframe)),
	)

	return result, nil
}

func (c *Compiler) record(ctx context.Context, tpl *template.StrategyTemplate, result *Result) error {
	run := store.Run{
		ID:               result.RunID,
		Strategy:         tpl.Name,
		GeneratorVersion: version.GetVersion(),
		Diagnostics:      len(result.Diagnostics),
		CreatedAt:        time.Now().UTC(),
	}

	var files []store.File

	for _, a := range result.Artifacts {
		run.Targets = append(run.Targets, string(a.Target))

		for _, f := range a.Files {
			files = append(files, store.File{RunID: run.ID, Target: string(a.Target), Name: f.Name, Content: f.Content})
		}
	}

	return c.history.Unwrap().SaveRun(ctx, run, files)
}

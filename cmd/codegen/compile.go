package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-codegen/internal/analyzer"
	"github.com/rxtech-lab/argo-codegen/internal/codegen"
	"github.com/rxtech-lab/argo-codegen/internal/compiler"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/internal/store"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func compileCommand() *cli.Command {
	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile strategy templates into target source files",
		ArgsUsage: "STRATEGY_FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output `DIR`, one sub-directory per target",
				Value:   "build",
			},
			&cli.StringSliceFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("Target to emit (%s, %s), overrides the config", codegen.TargetMQL, codegen.TargetBacktrader),
			},
			&cli.BoolFlag{
				Name:  "allow-diagnostics",
				Usage: "Emit code even when analysis reports problems",
			},
			&cli.StringFlag{
				Name:  "history",
				Usage: "DuckDB `FILE` recording compile runs, overrides the config",
			},
		},
		Action: compileAction,
	}
}

func compileAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "at least one strategy file is required")
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if targets := cmd.StringSlice("target"); len(targets) > 0 {
		config.Targets = make([]codegen.Target, 0, len(targets))
		for _, t := range targets {
			config.Targets = append(config.Targets, codegen.Target(t))
		}
	}

	if cmd.Bool("allow-diagnostics") {
		config.AllowDiagnostics = true
	}

	if path := cmd.String("history"); path != "" {
		config.HistoryPath = path
	}

	catalog, err := loadCatalog(cmd, log)
	if err != nil {
		return err
	}

	c, err := compiler.New(catalog, config, log)
	if err != nil {
		return err
	}

	if config.HistoryPath != "" {
		history, err := store.NewDuckDBStore(log, config.HistoryPath)
		if err != nil {
			return err
		}
		defer history.Close()

		c = c.WithHistory(history)
	}

	stdout := cmd.Root().Writer
	stderr := cmd.Root().ErrWriter
	out := cmd.String("out")

	var bar *progressbar.ProgressBar
	if len(paths) > 1 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("compiling"),
			progressbar.OptionShowCount(),
		)
	}

	failed := 0

	for _, path := range paths {
		written, err := compileFile(ctx, c, path, out, stderr)
		if bar != nil {
			_ = bar.Add(1)
		}

		if err != nil {
			failed++

			log.Error("Compile failed", zap.String("path", path), zap.Error(err))
			fmt.Fprintln(stderr, ErrorStyle.Render(fmt.Sprintf("%s: %v", path, err)))

			continue
		}

		for _, file := range written {
			fmt.Fprintln(stdout, SuccessStyle.Render("wrote")+" "+file)
		}
	}

	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(stderr)
	}

	if failed > 0 {
		return errors.Newf(errors.ErrCodeEmissionFailed, "%d of %d strategies failed to compile", failed, len(paths))
	}

	return nil
}

// compileFile compiles one strategy and writes its artifacts under out/<target>.
// It returns the written paths.
func compileFile(ctx context.Context, c *compiler.Compiler, path, out string, diagnostics io.Writer) ([]string, error) {
	tpl, err := template.LoadStrategyFile(path)
	if err != nil {
		return nil, err
	}

	result, err := c.Compile(ctx, tpl)
	if result != nil {
		renderDiagnostics(diagnostics, path, result.Diagnostics)
	}

	if err != nil {
		return nil, err
	}

	return writeArtifacts(out, result.Artifacts)
}

func writeArtifacts(out string, artifacts []*codegen.Artifact) ([]string, error) {
	var written []string

	for _, artifact := range artifacts {
		dir := filepath.Join(out, string(artifact.Target))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return written, errors.Wrapf(errors.ErrCodeEmissionFailed, err, "failed to create %s", dir)
		}

		for _, file := range artifact.Files {
			path := filepath.Join(dir, file.Name)
			if err := os.WriteFile(path, []byte(file.Content), 0644); err != nil {
				return written, errors.Wrapf(errors.ErrCodeEmissionFailed, err, "failed to write %s", path)
			}

			written = append(written, path)
		}
	}

	return written, nil
}

func renderDiagnostics(w io.Writer, path string, diagnostics []analyzer.Diagnostic) {
	if len(diagnostics) == 0 {
		return
	}

	fmt.Fprintln(w, TitleStyle.Render(fmt.Sprintf("%s: %d problem(s)", path, len(diagnostics))))

	for _, d := range diagnostics {
		fmt.Fprintf(w, "  %s %s %s\n",
			WarningStyle.Render(fmt.Sprintf("[%d]", d.Code)),
			HelpStyle.Render(d.Path),
			d.Message,
		)
	}
}

// openHistory opens the run history named by the flags or the config.
func openHistory(cmd *cli.Command, log *logger.Logger) (*store.DuckDBStore, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	path := cmd.String("history")
	if path == "" {
		path = config.HistoryPath
	}

	if path == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no history file configured")
	}

	return store.NewDuckDBStore(log, path)
}

// Command codegen compiles strategy templates into MQL expert advisors and
// backtrader strategies.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rxtech-lab/argo-codegen/internal/compiler"
	"github.com/rxtech-lab/argo-codegen/internal/indicator"
	"github.com/rxtech-lab/argo-codegen/internal/logger"
	"github.com/rxtech-lab/argo-codegen/internal/version"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

// newApp builds the command tree. Output goes to stdout, progress and
// diagnostics to stderr.
func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "codegen",
		Usage:     "Generate MQL and backtrader code from strategy templates",
		Version:   version.GetVersion(),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the codegen config `FILE`",
			},
			&cli.StringSliceFlag{
				Name:    "indicators",
				Aliases: []string{"i"},
				Usage:   "Directory of extra indicator templates, may be repeated",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log every pipeline stage",
			},
		},
		Commands: []*cli.Command{
			compileCommand(),
			checkCommand(),
			indicatorsCommand(),
			schemaCommand(),
			historyCommand(),
		},
	}
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	level := zapcore.WarnLevel
	if cmd.Bool("verbose") {
		level = zapcore.DebugLevel
	}

	return logger.NewLoggerWithLevel(level)
}

// loadConfig reads the config file when one is given and applies the
// command-line overrides on top of it.
func loadConfig(cmd *cli.Command) (compiler.Config, error) {
	config := compiler.EmptyConfig()

	if path := cmd.String("config"); path != "" {
		loaded, err := compiler.LoadConfig(path)
		if err != nil {
			return config, err
		}

		config = loaded
	}

	return config, nil
}

// loadCatalog returns the builtin indicators plus every template found in the
// --indicators directories.
func loadCatalog(cmd *cli.Command, log *logger.Logger) (indicator.Catalog, error) {
	catalog := indicator.DefaultCatalog()

	for _, dir := range cmd.StringSlice("indicators") {
		names, err := indicator.LoadDirectory(catalog, dir)
		if err != nil {
			return nil, err
		}

		log.Debug("Loaded indicators", zap.Strings("names", names), zap.String("dir", dir))
	}

	return catalog, nil
}

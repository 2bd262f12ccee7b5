package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-codegen/internal/analyzer"
	"github.com/rxtech-lab/argo-codegen/internal/compiler"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/urfave/cli/v3"
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Analyze templates and report problems without emitting code",
		ArgsUsage: "TEMPLATE_FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "indicator",
				Usage: "Treat the files as indicator templates",
			},
		},
		Action: checkAction,
	}
}

func checkAction(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "at least one template file is required")
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

	catalog, err := loadCatalog(cmd, log)
	if err != nil {
		return err
	}

	c, err := compiler.New(catalog, config, log)
	if err != nil {
		return err
	}

	stdout := cmd.Root().Writer
	problems := 0

	for _, path := range paths {
		result, err := checkFile(c, path, cmd.Bool("indicator"))
		if err != nil {
			return err
		}

		if !result.HasDiagnostics() {
			fmt.Fprintln(stdout, SuccessStyle.Render("ok")+" "+path)

			continue
		}

		problems += len(result.Diagnostics)
		renderDiagnostics(stdout, path, result.Diagnostics)
	}

	if problems > 0 {
		return errors.Newf(errors.ErrCodeValidationFailed, "found %d problem(s)", problems)
	}

	return nil
}

func checkFile(c *compiler.Compiler, path string, isIndicator bool) (*analyzer.Result, error) {
	if isIndicator {
		tpl, err := template.LoadIndicatorFile(path)
		if err != nil {
			return nil, err
		}

		return c.CheckIndicator(tpl), nil
	}

	tpl, err := template.LoadStrategyFile(path)
	if err != nil {
		return nil, err
	}

	return c.Check(tpl), nil
}

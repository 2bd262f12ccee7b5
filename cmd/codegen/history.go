package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-codegen/pkg/errors"
	"github.com/urfave/cli/v3"
)

func historyCommand() *cli.Command {
	historyFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "history",
			Usage: "DuckDB `FILE` holding compile runs, overrides the config",
		}
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded compile runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List runs, newest first",
				Flags: []cli.Flag{
					historyFlag(),
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Only list runs of this strategy",
					},
				},
				Action: historyListAction,
			},
			{
				Name:      "show",
				Usage:     "Restore the files of a run",
				ArgsUsage: "RUN_ID",
				Flags: []cli.Flag{
					historyFlag(),
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the files under `DIR` instead of printing them",
					},
				},
				Action: historyShowAction,
			},
			{
				Name:      "export",
				Usage:     "Export runs and files as parquet",
				ArgsUsage: "DIR",
				Flags:     []cli.Flag{historyFlag()},
				Action:    historyExportAction,
			},
		},
	}
}

func historyListAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	history, err := openHistory(cmd, log)
	if err != nil {
		return err
	}
	defer history.Close()

	runs, err := history.ListRuns(ctx, cmd.String("strategy"))
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STRATEGY", "VERSION", "TARGETS", "DIAGNOSTICS", "CREATED")

	for _, run := range runs {
		t.Row(
			run.ID,
			run.Strategy,
			run.GeneratorVersion,
			strings.Join(run.Targets, ", "),
			strconv.Itoa(run.Diagnostics),
			run.CreatedAt.Format(time.RFC3339),
		)
	}

	fmt.Fprintln(cmd.Root().Writer, t.String())

	return nil
}

func historyShowAction(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.Args().First()
	if runID == "" {
		return errors.New(errors.ErrCodeMissingParameter, "a run id is required")
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	history, err := openHistory(cmd, log)
	if err != nil {
		return err
	}
	defer history.Close()

	files, err := history.GetFiles(ctx, runID)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return errors.Newf(errors.ErrCodeStoreQueryFailed, "run %s has no files", runID)
	}

	stdout := cmd.Root().Writer
	out := cmd.String("out")

	for _, file := range files {
		if out == "" {
			fmt.Fprintln(stdout, TitleStyle.Render(fmt.Sprintf("# %s/%s", file.Target, file.Name)))
			fmt.Fprintln(stdout, file.Content)

			continue
		}

		dir := filepath.Join(out, file.Target)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(errors.ErrCodeEmissionFailed, err, "failed to create %s", dir)
		}

		path := filepath.Join(dir, file.Name)
		if err := os.WriteFile(path, []byte(file.Content), 0644); err != nil {
			return errors.Wrapf(errors.ErrCodeEmissionFailed, err, "failed to write %s", path)
		}

		fmt.Fprintln(stdout, SuccessStyle.Render("wrote")+" "+path)
	}

	return nil
}

func historyExportAction(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.Args().First()
	if dir == "" {
		return errors.New(errors.ErrCodeMissingParameter, "an export directory is required")
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	history, err := openHistory(cmd, log)
	if err != nil {
		return err
	}
	defer history.Close()

	if err := history.Export(dir); err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, SuccessStyle.Render("exported")+" "+dir)

	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/rxtech-lab/argo-codegen/internal/compiler"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/urfave/cli/v3"
)

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the codegen config or of strategy settings",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "settings",
				Usage: "Print the strategy settings schema instead",
			},
		},
		Action: schemaAction,
	}
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	var (
		schema string
		err    error
	)

	if cmd.Bool("settings") {
		schema, err = template.SettingsSchema()
	} else {
		config := compiler.EmptyConfig()
		schema, err = config.GenerateSchemaJSON()
	}

	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, schema)

	return nil
}

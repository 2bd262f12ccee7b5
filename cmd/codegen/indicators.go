package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-codegen/pkg/template"
	"github.com/urfave/cli/v3"
)

func indicatorsCommand() *cli.Command {
	return &cli.Command{
		Name:      "indicators",
		Usage:     "List the indicator catalog, or describe one indicator",
		ArgsUsage: "[NAME]",
		Action:    indicatorsAction,
	}
}

func indicatorsAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	catalog, err := loadCatalog(cmd, log)
	if err != nil {
		return err
	}

	stdout := cmd.Root().Writer

	if name := cmd.Args().First(); name != "" {
		tpl, err := catalog.GetIndicator(name)
		if err != nil {
			return err
		}

		fmt.Fprintln(stdout, describeIndicator(tpl))

		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "LINES", "PARAMS", "DESCRIPTION")

	for _, name := range catalog.ListIndicators() {
		tpl, err := catalog.GetIndicator(name)
		if err != nil {
			return err
		}

		params := make([]string, 0, len(tpl.Params))
		for _, p := range tpl.Params {
			params = append(params, p.Name)
		}

		t.Row(tpl.Name, strings.Join(tpl.Lines, ", "), strings.Join(params, ", "), tpl.Description)
	}

	fmt.Fprintln(stdout, t.String())

	return nil
}

func describeIndicator(tpl *template.IndicatorTemplate) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(tpl.Name))
	b.WriteString("\n")

	if tpl.Description != "" {
		b.WriteString(HelpStyle.Render(tpl.Description))
		b.WriteString("\n")
	}

	b.WriteString("lines: " + strings.Join(tpl.Lines, ", ") + "\n")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("PARAM", "KIND", "DEFAULT", "OPTIONS", "DESCRIPTION")

	for _, p := range tpl.Params {
		def := ""
		if p.Required {
			def = "required"
		} else if p.Default.IsSome() {
			def = template.FormatArgument(p.Default.Unwrap())
		}

		options := make([]string, 0, len(p.Options))
		for _, o := range p.Options {
			options = append(options, string(o))
		}

		t.Row(p.Name, string(p.Kind), def, strings.Join(options, ", "), p.Description)
	}

	b.WriteString(t.String())

	return b.String()
}

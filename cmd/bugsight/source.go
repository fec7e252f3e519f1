package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/internal/service/analysis"
)

func sourceCmd() *cli.Command {
	return &cli.Command{
		Name:      "source",
		Usage:     "Compute metrics for a single module, bypassing discovery and exclusions",
		ArgsUsage: "<file|->",
		Description: `Analyzes exactly one module. Use - to read the source from stdin.
The per-method fan-in and fan-out breakdowns are shown alongside the record.`,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name for the module in output when reading stdin",
				Value: "<stdin>",
			},
		),
		Action: runSourceCmd,
	}
}

func runSourceCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("source takes exactly one file (or - for stdin)", 1)
	}
	path := c.Args().First()

	content, err := readInput(c, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if path == "-" {
		path = c.String("name")
	}

	st, err := getState(c)
	if err != nil {
		return err
	}
	svc := analysis.New(analysis.WithConfig(st.config), analysis.WithLogger(st.logger))
	result, err := svc.AnalyzeSource(c.Context, path, content)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, st.config)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(result.Renderable()); err != nil {
		return err
	}
	if result.Failure != nil {
		return cli.Exit("", 2)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/internal/progress"
	"github.com/panbanda/bugsight/internal/service/analysis"
	"github.com/panbanda/bugsight/pkg/analyzer"
)

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Aliases:   []string{"m"},
		Usage:     "Compute object-oriented metrics for Python files",
		ArgsUsage: "[path...]",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze the git tree at this revision instead of the working tree",
			},
			&cli.StringFlag{
				Name:  "sort",
				Usage: "Sort files by metric, highest first (cbo, lcom, rfc, ...)",
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "Show only the top N files (0 shows all)",
			},
			&cli.BoolFlag{
				Name:  "include-tests",
				Usage: "Include test files in analysis",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the record cache",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the progress bar",
			},
			&cli.BoolFlag{
				Name:  "fail-on-error",
				Usage: "Exit with status 2 when any file fails analysis",
			},
		),
		Action: runMetricsCmd,
	}
}

func runMetricsCmd(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}
	cfg := st.config
	if c.Bool("include-tests") {
		cfg.Analysis.IncludeTests = true
	}

	opts := analysis.MetricsOptions{
		Ref:    c.String("ref"),
		SortBy: cfg.Output.SortBy,
		Top:    cfg.Output.Top,
	}
	if c.IsSet("sort") {
		opts.SortBy = c.String("sort")
	}
	if c.IsSet("top") {
		opts.Top = c.Int("top")
	}

	svcOpts := []analysis.Option{
		analysis.WithConfig(cfg),
		analysis.WithLogger(st.logger),
	}
	if ch := openCache(st, c.Bool("no-cache")); ch != nil {
		svcOpts = append(svcOpts, analysis.WithCache(ch))
	}

	ctx := c.Context
	var tracker *progress.Tracker
	if !c.Bool("quiet") {
		tracker = progress.NewTracker("Analyzing", 0)
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(tracker.Report))
	}

	report, err := analysis.New(svcOpts...).AnalyzeMetrics(ctx, getPaths(c), opts)
	if tracker != nil {
		if err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}
	if err != nil {
		return fmt.Errorf("metrics analysis failed: %w", err)
	}

	if report.Summary.TotalFiles == 0 {
		fmt.Fprintln(c.App.ErrWriter, color.YellowString("No Python files found"))
		return nil
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(report.Renderable()); err != nil {
		return err
	}

	if c.Bool("fail-on-error") && report.Summary.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed analysis", report.Summary.Failed, report.Summary.TotalFiles), 2)
	}
	return nil
}

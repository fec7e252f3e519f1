package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/internal/service/analysis"
	"github.com/panbanda/bugsight/pkg/source"
	"github.com/panbanda/bugsight/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Re-analyze Python files as they change",
		ArgsUsage: "[path]",
		Flags: append(outputFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a changed file is analyzed",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the record cache",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}
	root := "."
	if c.Args().Len() > 1 {
		return cli.Exit("watch takes a single directory", 1)
	}
	if c.Args().Len() == 1 {
		root = c.Args().First()
	}

	w, err := watch.NewWatcher(root, st.config, c.Duration("debounce"), st.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	formatter, err := newFormatter(c, st.config)
	if err != nil {
		return err
	}
	defer formatter.Close()

	opts := []analysis.Option{analysis.WithConfig(st.config), analysis.WithLogger(st.logger)}
	if ch := openCache(st, c.Bool("no-cache")); ch != nil {
		opts = append(opts, analysis.WithCache(ch))
	}
	svc := analysis.New(opts...)

	fmt.Fprintln(c.App.ErrWriter, color.CyanString("Watching for changes in %s (Ctrl+C to stop)", w.Root()))

	err = w.Run(c.Context, func(ctx context.Context, files []string) {
		report, err := svc.AnalyzeFiles(ctx, files, source.NewFilesystem(), analysis.MetricsOptions{})
		if err != nil {
			st.logger.Warn("analysis failed", "error", err)
			return
		}
		if err := formatter.Output(report.Renderable()); err != nil {
			st.logger.Warn("write report", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newApp() *cli.App {
	return &cli.App{
		Name:     "bugsight",
		Usage:    "Object-oriented metrics for Python code",
		Version:  buildInfo(),
		Metadata: make(map[string]interface{}),
		Description: `bugsight parses Python modules and reports coupling, cohesion,
inheritance and fan-in/fan-out metrics per file. Files that cannot be
analyzed are reported with a classified failure instead of aborting the run.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"BUGSIGHT_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: setup,
		// main maps errors to exit codes
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			metricsCmd(),
			sourceCmd(),
			configCmd(),
			cacheCmd(),
			watchCmd(),
			mcpCmd(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		if err.Error() != "" {
			color.Red("Error: %v", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// buildInfo is shown by --version. The variables are set via ldflags.
func buildInfo() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/internal/cache"
	"github.com/panbanda/bugsight/internal/logging"
	"github.com/panbanda/bugsight/internal/output"
	"github.com/panbanda/bugsight/pkg/config"
)

const stateKey = "state"

// state is built once per invocation by setup and shared by all commands.
type state struct {
	config *config.Config
	source string
	logger *slog.Logger
	// loadErr is reported by every command except config validate.
	loadErr error
}

// setup loads the configuration and installs the logger. A config that
// fails to load leaves the defaults in place and is reported by getState.
func setup(c *cli.Context) error {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, loadErr := config.LoadConfig(opts...)
	if loadErr != nil {
		result = &config.LoadResult{Config: config.DefaultConfig()}
	}

	logger, err := logging.Setup(c.App.ErrWriter, logging.Options{
		Level:   result.Config.Log.Level,
		Format:  result.Config.Log.Format,
		Verbose: c.Bool("verbose"),
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if result.Source != "" {
		logger.Debug("config loaded", "path", result.Source)
	}

	c.App.Metadata[stateKey] = &state{
		config:  result.Config,
		source:  result.Source,
		logger:  logger,
		loadErr: loadErr,
	}
	return nil
}

func getState(c *cli.Context) (*state, error) {
	st, ok := c.App.Metadata[stateKey].(*state)
	if !ok {
		return &state{config: config.DefaultConfig(), logger: slog.Default()}, nil
	}
	if st.loadErr != nil {
		return nil, st.loadErr
	}
	return st, nil
}

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon (default from config)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
	}
}

// newFormatter honours --format and --output, falling back to the output
// section of the config. Color is used only on an interactive stdout.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	name := c.String("format")
	if name == "" {
		name = cfg.Output.Format
	}
	format := output.ParseFormat(name)

	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	colored := cfg.Output.Color && !color.NoColor && c.App.Writer == os.Stdout
	return output.NewWriterFormatter(format, c.App.Writer, colored), nil
}

// openCache returns the configured record cache, or nil when caching is
// off. A cache that cannot be opened is logged and skipped.
func openCache(st *state, disabled bool) *cache.Cache {
	cfg := st.config.Cache
	if disabled || !cfg.Enabled {
		return nil
	}
	c, err := cache.New(cfg.Dir, cfg.TTL, true)
	if err != nil {
		st.logger.Warn("cache unavailable", "dir", cfg.Dir, "error", err)
		return nil
	}
	return c
}

func readInput(c *cli.Context, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(c.App.Reader)
	}
	return os.ReadFile(path)
}

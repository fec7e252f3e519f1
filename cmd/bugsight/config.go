package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  bugsight config show                  # Show effective config
  bugsight -c bugsight.toml config show # Show config from specific file`,
				Action: runConfigShow,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a bugsight configuration file for syntax errors and invalid values.

Examples:
  bugsight config validate                      # Validates default config locations
  bugsight -c .bugsight/bugsight.toml config validate`,
				Action: runConfigValidate,
			},
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Value:   "bugsight.toml",
						Usage:   "Output file path",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite existing config file",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema config files are validated against",
				Action: runConfigSchema,
			},
		},
	}
}

func runConfigShow(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}
	w := c.App.Writer

	if st.source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", st.source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := st.config.TOML()
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

// runConfigValidate reloads without the fallback so a broken file is reported.
func runConfigValidate(c *cli.Context) error {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}

	result, err := config.LoadConfig(opts...)
	if err == nil {
		err = result.Config.Validate()
	}
	if err != nil {
		fmt.Fprintln(c.App.Writer, color.RedString("Configuration validation failed:"))
		fmt.Fprintf(c.App.Writer, "  - %s\n", err)
		return err
	}

	if result.Source != "" {
		fmt.Fprintln(c.App.Writer, color.GreenString("Configuration valid: %s", result.Source))
	} else {
		fmt.Fprintln(c.App.Writer, color.YellowString("No config file found. Default configuration is valid."))
	}
	return nil
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := config.DefaultTOML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("Created %s", outputPath))
	return nil
}

func runConfigSchema(c *cli.Context) error {
	_, err := c.App.Writer.Write(config.Schema())
	return err
}

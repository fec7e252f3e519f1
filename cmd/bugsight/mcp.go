package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/bugsight/internal/mcpserver"
	"github.com/panbanda/bugsight/internal/service/analysis"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes bugsight's
metrics as tools that LLMs can invoke.

To use with an MCP client, add to its config:
  {
    "mcpServers": {
      "bugsight": {
        "command": "bugsight",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_metrics   Per-file OO metrics for a project or git revision
  - analyze_source    Metrics for one module passed as text`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP registry manifest (server.json)",
				Action: runMCPManifest,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	st, err := getState(c)
	if err != nil {
		return err
	}
	opts := []analysis.Option{
		analysis.WithConfig(st.config),
		analysis.WithLogger(st.logger),
	}
	if ch := openCache(st, false); ch != nil {
		opts = append(opts, analysis.WithCache(ch))
	}

	server, err := mcpserver.NewServer(version, opts...)
	if err != nil {
		return err
	}
	return server.Run(c.Context)
}

func runMCPManifest(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, string(data))
	return err
}

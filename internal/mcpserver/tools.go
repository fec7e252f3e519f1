package mcpserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/bugsight/internal/output"
	"github.com/panbanda/bugsight/internal/service/analysis"
)

// AnalyzeInput is the base input for the analyze tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Paths to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// MetricsInput adds run options to AnalyzeInput.
type MetricsInput struct {
	AnalyzeInput
	Ref    string `json:"ref,omitempty" jsonschema:"Git revision to analyze instead of the working tree. Requires a single repository path."`
	SortBy string `json:"sort_by,omitempty" jsonschema:"Metric to sort files by, highest first (e.g. cbo, lcom, rfc)."`
	Top    int    `json:"top,omitempty" jsonschema:"Keep only the top N files after sorting. 0 keeps all."`
}

// SourceInput analyzes a single in-memory module.
type SourceInput struct {
	Source string `json:"source" jsonschema:"Python source code of one module."`
	Path   string `json:"path,omitempty" jsonschema:"Name used for the module in failure messages. Default <source>."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) newService() *analysis.Service {
	return analysis.New(s.serviceOpts...)
}

func (s *Server) handleAnalyzeMetrics(ctx context.Context, req *mcp.CallToolRequest, input MetricsInput) (*mcp.CallToolResult, any, error) {
	report, err := s.newService().AnalyzeMetrics(ctx, getPaths(input.AnalyzeInput), analysis.MetricsOptions{
		Ref:    input.Ref,
		SortBy: input.SortBy,
		Top:    input.Top,
	})
	if err != nil {
		return toolError(err.Error())
	}
	if report.Summary.TotalFiles == 0 {
		return toolError("no Python files found")
	}
	return toolResult(report.Renderable(), getFormat(input.Format))
}

func (s *Server) handleAnalyzeSource(ctx context.Context, req *mcp.CallToolRequest, input SourceInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Source) == "" {
		return toolError("source is empty")
	}
	path := input.Path
	if path == "" {
		path = "<source>"
	}

	result, err := s.newService().AnalyzeSource(ctx, path, []byte(input.Source))
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result.Renderable(), getFormat(input.Format))
}

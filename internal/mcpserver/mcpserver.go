package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/bugsight/internal/service/analysis"
)

// Server wraps the MCP server and registers the bugsight tools.
type Server struct {
	server      *mcp.Server
	serviceOpts []analysis.Option
}

// NewServer creates a new MCP server with all bugsight tools registered.
// opts are passed to every analysis service the tools create.
func NewServer(version string, opts ...analysis.Option) (*Server, error) {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bugsight",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, serviceOpts: opts}
	s.registerTools()
	if err := s.registerPrompts(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_metrics",
		Description: describeMetrics(),
	}, s.handleAnalyzeMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_source",
		Description: describeSource(),
	}, s.handleAnalyzeSource)
}

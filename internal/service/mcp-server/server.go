package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/mikael-devkh/sistema/internal/fsa"
)

// Dependencies are the collaborators the tools call into
type Dependencies struct {
	Searcher          fsa.Searcher
	Fsa               *fsa.Service
	DefaultMaxResults int
}

// NewServer creates a new MCP server instance
func NewServer(deps Dependencies) (*server.MCPServer, error) {
	s := server.NewMCPServer(
		"sistema jira proxy",
		"1.0.0",
	)

	if err := registerJiraTools(s, deps); err != nil {
		return nil, err
	}

	return s, nil
}

// Serve starts the MCP server on stdio
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewPreflightMCPServer creates a new MCP server with all preflight tools and
// resources registered. The projectPath is the root directory of the project
// to validate.
func NewPreflightMCPServer(projectPath string) *server.MCPServer {
	s := server.NewMCPServer(
		"preflight",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, projectPath)
	registerResources(s, projectPath)

	return s
}

// ABOUTME: MCP server implementation for readstate
// ABOUTME: Provides tools and resources for AI agents to drive the read-state cache

package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/harper/readstate/internal/baseline"
	"github.com/harper/readstate/internal/state"
)

// Server wraps the MCP server with readstate-specific context
type Server struct {
	mcpServer *server.MCPServer
	manager   *state.Manager
	source    baseline.Source
}

// NewServer creates a new MCP server instance. source may be nil when no
// baseline provider is configured; the sync tool then only resets local
// state.
func NewServer(manager *state.Manager, source baseline.Source) *Server {
	s := &Server{
		manager: manager,
		source:  source,
	}

	s.mcpServer = server.NewMCPServer(
		"readstate",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// registerTools is implemented in tools.go
// registerResources is implemented in resources.go

// Package mcp exposes the linter to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/tokenlint/pkg/lint"
	"github.com/gnana997/tokenlint/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server is the tokenlint MCP server: it lints code snippets and explains
// the token category table.
type Server struct {
	mcpServer *server.MCPServer
	plugin    *lint.Plugin
	logger    *mcplog.Logger // nil disables call logging
}

// NewServer creates a server backed by plugin. logger may be nil.
func NewServer(plugin *lint.Plugin, logger *mcplog.Logger) *Server {
	s := &Server{plugin: plugin, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}
	s.mcpServer = server.NewMCPServer("tokenlint", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: lintSourceTool(), Handler: s.handleLintSource},
		server.ServerTool{Tool: listTokenRulesTool(), Handler: s.handleListTokenRules},
		server.ServerTool{Tool: explainTokenTool(), Handler: s.handleExplainToken},
	)

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

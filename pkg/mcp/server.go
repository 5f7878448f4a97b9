// Package mcp exposes a step registry to AI agents as Model Context Protocol
// tools served over stdio.
package mcp

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
)

// Server serves MCP tool calls against one engine.
type Server struct {
	eng *engine.Engine
	mcp *server.MCPServer
}

// NewServer creates an MCP server with the launcher tools registered.
func NewServer(eng *engine.Engine, version string) *Server {
	s := &Server{
		eng: eng,
		mcp: server.NewMCPServer(
			"script-launcher",
			version,
			server.WithToolCapabilities(true),
		),
	}

	s.mcp.AddTool(
		mcp.NewTool("list_steps",
			mcp.WithDescription("List the configured steps with their index, label and shell command"),
		),
		s.HandleListSteps,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_step",
			mcp.WithDescription("Run one step by index and return its outcome, exit code and captured output"),
			mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based step index from list_steps")),
		),
		s.HandleRunStep,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_all",
			mcp.WithDescription("Run every step in order, continuing past failures, and return all results"),
		),
		s.HandleRunAll,
	)

	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Show the latest outcome of every step"),
		),
		s.HandleStatus,
	)

	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve answers requests read from in until in is closed or ctx is canceled.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// Package server assembles the MCP server and its transport. The default
// transport is stdio; an SSE endpoint over HTTP is available for clients that
// prefer it.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/wlhee/cloud-run-mcp/internal/tools"
	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

// Options configures the MCP server and transport.
type Options struct {
	Name    string
	Version string

	// SSE switches from the stdio transport to an HTTP/SSE endpoint.
	SSE  bool
	Host string
	Port int
}

// Server wraps the MCP server with its chosen transport.
type Server struct {
	mcp  *server.MCPServer
	opts Options
}

// New builds the MCP server and registers the tool gateway on it.
func New(gateway *tools.Gateway, opts Options) *Server {
	if opts.Host == "" {
		opts.Host = "localhost"
	}
	if opts.Port == 0 {
		opts.Port = 3000
	}

	mcpServer := server.NewMCPServer(
		opts.Name,
		opts.Version,
		server.WithToolCapabilities(true),
	)
	gateway.Register(mcpServer)

	return &Server{mcp: mcpServer, opts: opts}
}

// Serve runs the server until the context is cancelled or the transport
// fails.
func (s *Server) Serve(ctx context.Context) error {
	if !s.opts.SSE {
		logging.Info("Server", "serving MCP over stdio")
		return server.ServeStdio(s.mcp)
	}

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	baseURL := fmt.Sprintf("http://%s", addr)
	sseServer := server.NewSSEServer(
		s.mcp,
		server.WithBaseURL(baseURL),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
	)

	logging.Info("Server", "serving MCP over SSE on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := sseServer.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("SSE server: %w", err)
	case <-ctx.Done():
		logging.Info("Server", "shutting down")
		shutdownCtx := context.Background()
		return sseServer.Shutdown(shutdownCtx)
	}
}

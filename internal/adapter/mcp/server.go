// Package mcp exposes the review workflow over the Model Context Protocol so
// AI agents can escalate actions and poll for verdicts as tool calls.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/service"
)

// ReviewSubmitter creates reviews from native payloads and blocks for their
// resolution.
type ReviewSubmitter interface {
	Submit(ctx context.Context, framework string, native map[string]any) ([]service.SubmitResult, error)
	Await(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error)
}

// ReviewReader reads reviews and their decisions.
type ReviewReader interface {
	Get(ctx context.Context, id string) (*review.Review, *review.Decision, error)
	List(ctx context.Context, status review.Status, limit int) ([]review.Review, error)
}

// ReviewDecider records human verdicts.
type ReviewDecider interface {
	Decide(ctx context.Context, reviewID string, req review.DecideRequest) (*review.Decision, error)
}

// FrameworkLister reports the registered framework adapter names.
type FrameworkLister interface {
	Frameworks() []string
}

// ServerConfig holds the MCP server settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	APIKey  string // empty disables auth
}

// ServerDeps carries the service dependencies the tools call into. Nil fields
// make the corresponding tools return error results instead of panicking.
type ServerDeps struct {
	Submitter  ReviewSubmitter
	Reader     ReviewReader
	Decider    ReviewDecider
	Frameworks FrameworkLister
}

// Server hosts the MCP tool surface over streamable HTTP.
type Server struct {
	cfg        ServerConfig
	deps       ServerDeps
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
}

// NewServer creates the MCP server and registers all tools and resources.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Start binds the listen address and serves MCP over streamable HTTP in the
// background. It returns immediately after the listener is established.
func (s *Server) Start() error {
	handler := AuthMiddleware(s.cfg.APIKey, mcpserver.NewStreamableHTTPServer(s.mcpServer))
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server failed", "error", err)
		}
	}()

	slog.Info("mcp server started", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func toolResultJSON(text string) *mcplib.CallToolResult {
	return mcplib.NewToolResultText(text)
}

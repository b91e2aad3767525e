package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"humancheck://reviews/pending",
			"Pending Reviews",
			mcplib.WithResourceDescription("Reviews currently awaiting a human decision"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handlePendingReviewsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"humancheck://frameworks",
			"Framework Adapters",
			mcplib.WithResourceDescription("Registered agent framework adapter names"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleFrameworksResource,
	)
}

func (s *Server) handlePendingReviewsResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Reader == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"review reader not configured"}`,
			},
		}, nil
	}
	reviews, err := s.deps.Reader.List(ctx, review.StatusPending, 0)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(reviews)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleFrameworksResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Frameworks == nil {
		return []mcplib.ResourceContents{
			mcplib.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     `{"error":"framework lister not configured"}`,
			},
		}, nil
	}
	data, err := json.Marshal(s.deps.Frameworks.Frameworks())
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

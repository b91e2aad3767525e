package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	hcmcp "github.com/Strob0t/HumanCheck/internal/adapter/mcp"
	"github.com/Strob0t/HumanCheck/internal/domain"
	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/service"
)

// --- Mocks ---

type mockSubmitter struct {
	results  []service.SubmitResult
	awaited  map[string]any
	err      error
	awaitErr error
}

func (m *mockSubmitter) Submit(_ context.Context, _ string, _ map[string]any) ([]service.SubmitResult, error) {
	return m.results, m.err
}

func (m *mockSubmitter) Await(_ context.Context, _ string, _ time.Duration) (map[string]any, error) {
	return m.awaited, m.awaitErr
}

type mockReader struct {
	reviews   map[string]*review.Review
	decisions map[string]*review.Decision
	pending   []review.Review
	err       error
}

func (m *mockReader) Get(_ context.Context, id string) (*review.Review, *review.Decision, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil, domain.ErrNotFound
	}
	return r, m.decisions[id], nil
}

func (m *mockReader) List(_ context.Context, _ review.Status, _ int) ([]review.Review, error) {
	return m.pending, m.err
}

type mockDecider struct {
	decision *review.Decision
	err      error
}

func (m *mockDecider) Decide(_ context.Context, _ string, _ review.DecideRequest) (*review.Decision, error) {
	return m.decision, m.err
}

// --- Tests ---

func TestNewServer(t *testing.T) {
	cfg := hcmcp.ServerConfig{
		Addr:    ":8090",
		Name:    "test-server",
		Version: "0.1.0",
	}
	s := hcmcp.NewServer(cfg, hcmcp.ServerDeps{})
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestServerStartStop(t *testing.T) {
	cfg := hcmcp.ServerConfig{
		Addr:    ":0",
		Name:    "test-server",
		Version: "0.1.0",
	}
	s := hcmcp.NewServer(cfg, hcmcp.ServerDeps{})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestToolRegistration(t *testing.T) {
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, hcmcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}

	expectedTools := map[string]bool{
		"request_review":       false,
		"check_review_status":  false,
		"list_pending_reviews": false,
		"decide_review":        false,
	}
	for name := range tools {
		if _, ok := expectedTools[name]; ok {
			expectedTools[name] = true
		} else {
			t.Errorf("unexpected tool: %s", name)
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleRequestReview(t *testing.T) {
	deps := hcmcp.ServerDeps{
		Submitter: &mockSubmitter{
			results: []service.SubmitResult{
				{
					Review:   review.Review{ID: "rev-1", Status: review.StatusPending},
					Response: map[string]any{"status": "pending"},
				},
			},
		},
	}
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	reqTool, ok := tools["request_review"]
	if !ok {
		t.Fatal("request_review tool not found")
	}

	result, err := reqTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name: "request_review",
			Arguments: map[string]any{
				"task_type":       "sql",
				"proposed_action": "DELETE FROM users",
			},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var decoded struct {
		ReviewID string         `json:"review_id"`
		Response map[string]any `json:"response"`
	}
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if decoded.ReviewID != "rev-1" {
		t.Fatalf("expected review_id rev-1, got %q", decoded.ReviewID)
	}
	if decoded.Response["status"] != "pending" {
		t.Fatalf("expected pending response, got %v", decoded.Response)
	}
}

func TestHandleRequestReviewBlocking(t *testing.T) {
	deps := hcmcp.ServerDeps{
		Submitter: &mockSubmitter{
			results: []service.SubmitResult{
				{
					Review:   review.Review{ID: "rev-2", Status: review.StatusPending},
					Response: map[string]any{"status": "pending"},
				},
			},
			awaited: map[string]any{"status": "completed", "result": "approved"},
		},
	}
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	reqTool := tools["request_review"]

	result, err := reqTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name: "request_review",
			Arguments: map[string]any{
				"task_type":       "deploy",
				"proposed_action": "push to production",
				"blocking":        true,
			},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text := result.Content[0].(mcplib.TextContent)
	var decoded struct {
		Response map[string]any `json:"response"`
	}
	if err := json.Unmarshal([]byte(text.Text), &decoded); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if decoded.Response["result"] != "approved" {
		t.Fatalf("expected awaited decision response, got %v", decoded.Response)
	}
}

func TestHandleCheckReviewStatusMissingArg(t *testing.T) {
	deps := hcmcp.ServerDeps{
		Reader: &mockReader{reviews: map[string]*review.Review{}},
	}
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	statusTool, ok := tools["check_review_status"]
	if !ok {
		t.Fatal("check_review_status tool not found")
	}

	result, err := statusTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "check_review_status"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for missing review_id")
	}
}

func TestHandleListPendingReviews(t *testing.T) {
	deps := hcmcp.ServerDeps{
		Reader: &mockReader{
			pending: []review.Review{
				{ID: "rev-1", Status: review.StatusPending},
				{ID: "rev-2", Status: review.StatusPending},
			},
		},
	}
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	listTool := tools["list_pending_reviews"]

	result, err := listTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "list_pending_reviews"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text := result.Content[0].(mcplib.TextContent)
	var reviews []review.Review
	if err := json.Unmarshal([]byte(text.Text), &reviews); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(reviews))
	}
}

func TestHandleDecideReview(t *testing.T) {
	deps := hcmcp.ServerDeps{
		Decider: &mockDecider{
			decision: &review.Decision{ID: "d-1", ReviewID: "rev-1", DecisionType: review.DecisionApprove},
		},
	}
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, deps)

	tools := s.MCPServer().ListTools()
	decideTool := tools["decide_review"]

	result, err := decideTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name: "decide_review",
			Arguments: map[string]any{
				"review_id":     "rev-1",
				"decision_type": "approve",
			},
		},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}

	text := result.Content[0].(mcplib.TextContent)
	var d review.Decision
	if err := json.Unmarshal([]byte(text.Text), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.DecisionType != review.DecisionApprove {
		t.Fatalf("expected approve, got %q", d.DecisionType)
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := hcmcp.NewServer(hcmcp.ServerConfig{Name: "test", Version: "0.1.0"}, hcmcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	reqTool, ok := tools["request_review"]
	if !ok {
		t.Fatal("request_review tool not found")
	}

	result, err := reqTool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: "request_review"},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result when deps are nil")
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("disabled without key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		hcmcp.AuthMiddleware("", ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		hcmcp.AuthMiddleware("secret", ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		hcmcp.AuthMiddleware("secret", ok).ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		hcmcp.AuthMiddleware("secret", ok).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("bare key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "secret")
		rec := httptest.NewRecorder()
		hcmcp.AuthMiddleware("secret", ok).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.requestReviewTool(),
		s.checkReviewStatusTool(),
		s.listPendingReviewsTool(),
		s.decideReviewTool(),
	)
}

func (s *Server) requestReviewTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("request_review",
		mcplib.WithDescription("Escalate a proposed action for human review before executing it"),
		mcplib.WithString("task_type",
			mcplib.Required(),
			mcplib.Description("Category of the action, e.g. sql, deploy, email"),
		),
		mcplib.WithString("proposed_action",
			mcplib.Required(),
			mcplib.Description("The exact action awaiting approval"),
		),
		mcplib.WithString("reasoning",
			mcplib.Description("Why the agent wants to take this action"),
		),
		mcplib.WithNumber("confidence",
			mcplib.Description("Agent confidence between 0 and 1"),
		),
		mcplib.WithString("urgency",
			mcplib.Description("One of low, medium, high, critical (default medium)"),
		),
		mcplib.WithBoolean("blocking",
			mcplib.Description("Wait for the human decision instead of returning immediately"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleRequestReview,
	}
}

func (s *Server) checkReviewStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("check_review_status",
		mcplib.WithDescription("Check whether a review has been decided"),
		mcplib.WithString("review_id",
			mcplib.Required(),
			mcplib.Description("The review ID returned by request_review"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleCheckReviewStatus,
	}
}

func (s *Server) listPendingReviewsTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("list_pending_reviews",
		mcplib.WithDescription("List reviews still waiting for a human decision"),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleListPendingReviews,
	}
}

func (s *Server) decideReviewTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("decide_review",
		mcplib.WithDescription("Record the human verdict on a pending review"),
		mcplib.WithString("review_id",
			mcplib.Required(),
			mcplib.Description("The review to decide"),
		),
		mcplib.WithString("decision_type",
			mcplib.Required(),
			mcplib.Description("One of approve, reject, modify"),
		),
		mcplib.WithString("modified_action",
			mcplib.Description("Replacement action, required when decision_type is modify"),
		),
		mcplib.WithString("notes",
			mcplib.Description("Reviewer notes passed back to the agent"),
		),
		mcplib.WithString("reviewer_name",
			mcplib.Description("Who decided"),
		),
	)
	return mcpserver.ServerTool{
		Tool:    tool,
		Handler: s.handleDecideReview,
	}
}

func (s *Server) handleRequestReview(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Submitter == nil {
		return mcplib.NewToolResultError("review submitter not configured"), nil
	}
	args := req.GetArguments()

	results, err := s.deps.Submitter.Submit(ctx, "mcp", args)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to submit review", err), nil
	}
	result := results[0]

	response := result.Response
	if blocking, _ := args["blocking"].(bool); blocking {
		response, err = s.deps.Submitter.Await(ctx, result.Review.ID, 0)
		if err != nil {
			return mcplib.NewToolResultErrorFromErr(
				fmt.Sprintf("review %s not decided", result.Review.ID), err,
			), nil
		}
	}

	data, err := json.Marshal(map[string]any{
		"review_id": result.Review.ID,
		"response":  response,
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal response", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleCheckReviewStatus(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Reader == nil {
		return mcplib.NewToolResultError("review reader not configured"), nil
	}
	args := req.GetArguments()
	reviewID, ok := args["review_id"].(string)
	if !ok || reviewID == "" {
		return mcplib.NewToolResultError("review_id is required"), nil
	}

	r, d, err := s.deps.Reader.Get(ctx, reviewID)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to get review %s", reviewID), err,
		), nil
	}
	data, err := json.Marshal(map[string]any{"review": r, "decision": d})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal review", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleListPendingReviews(ctx context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Reader == nil {
		return mcplib.NewToolResultError("review reader not configured"), nil
	}
	reviews, err := s.deps.Reader.List(ctx, review.StatusPending, 0)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list pending reviews", err), nil
	}
	data, err := json.Marshal(reviews)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal reviews", err), nil
	}
	return toolResultJSON(string(data)), nil
}

func (s *Server) handleDecideReview(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Decider == nil {
		return mcplib.NewToolResultError("review decider not configured"), nil
	}
	args := req.GetArguments()
	reviewID, ok := args["review_id"].(string)
	if !ok || reviewID == "" {
		return mcplib.NewToolResultError("review_id is required"), nil
	}
	decisionType, _ := args["decision_type"].(string)
	modifiedAction, _ := args["modified_action"].(string)
	notes, _ := args["notes"].(string)
	reviewerName, _ := args["reviewer_name"].(string)

	d, err := s.deps.Decider.Decide(ctx, reviewID, review.DecideRequest{
		DecisionType:   review.DecisionType(decisionType),
		ModifiedAction: modifiedAction,
		Notes:          notes,
		ReviewerName:   reviewerName,
	})
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(
			fmt.Sprintf("failed to decide review %s", reviewID), err,
		), nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal decision", err), nil
	}
	return toolResultJSON(string(data)), nil
}

package frameworks

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain"
	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/port/database"
)

const (
	mcpDefaultTimeout = 5 * time.Minute
	mcpPollInterval   = 2 * time.Second
)

// MCP adapts Model Context Protocol tool calls. MCP clients use the shorter
// parameter names "reasoning" and "confidence" and expect tool-result shaped
// responses pointing at check_review_status for async follow-up.
type MCP struct {
	store        database.Store
	timeout      time.Duration
	pollInterval time.Duration
}

// NewMCP creates the MCP adapter. Non-positive timeout or pollInterval select
// the adapter defaults (300s budget, 2s polls).
func NewMCP(store database.Store, timeout, pollInterval time.Duration) *MCP {
	if timeout <= 0 {
		timeout = mcpDefaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = mcpPollInterval
	}
	return &MCP{store: store, timeout: timeout, pollInterval: pollInterval}
}

// Name returns "mcp".
func (a *MCP) Name() string { return "mcp" }

// ToUniversal converts an MCP tool call into a single universal review.
func (a *MCP) ToUniversal(native map[string]any) ([]review.UniversalReview, error) {
	if err := a.Validate(native); err != nil {
		return nil, err
	}

	urgency, err := review.ParseUrgency(getString(native, "urgency"))
	if err != nil {
		return nil, err
	}
	confidence, _ := getFloatPtr(native, "confidence")

	u := review.UniversalReview{
		TaskType:        getString(native, "task_type"),
		ProposedAction:  getString(native, "proposed_action"),
		AgentReasoning:  getString(native, "reasoning"),
		ConfidenceScore: confidence,
		Urgency:         urgency,
		Framework:       a.Name(),
		Metadata:        getMap(native, "metadata"),
		Blocking:        getBool(native, "blocking", false),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return []review.UniversalReview{u}, nil
}

// FromUniversal renders the MCP tool response shape.
func (a *MCP) FromUniversal(u review.UniversalReview, d *review.Decision) map[string]any {
	if d == nil {
		return map[string]any{
			"status":    "pending",
			"message":   "Review request submitted. Use check_review_status to monitor progress.",
			"task_type": u.TaskType,
		}
	}

	resp := map[string]any{
		"status":    "completed",
		"decision":  string(d.DecisionType),
		"timestamp": d.Timestamp.Format(time.RFC3339),
	}
	switch d.DecisionType {
	case review.DecisionApprove:
		resp["result"] = "approved"
		resp["action"] = u.ProposedAction
		resp["message"] = "The proposed action has been approved."
	case review.DecisionReject:
		resp["result"] = "rejected"
		resp["message"] = withNotes("The proposed action was rejected.", d.Notes)
	case review.DecisionModify:
		resp["result"] = "modified"
		resp["action"] = d.ModifiedAction
		resp["message"] = withNotes("The action was modified.", d.Notes)
	}
	return resp
}

// HandleBlocking polls until the review is decided and returns the MCP tool
// response shape.
func (a *MCP) HandleBlocking(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error) {
	if timeout <= 0 {
		timeout = a.timeout
	}
	r, d, err := awaitDecision(ctx, a.store, reviewID, timeout, a.pollInterval)
	if err != nil {
		return nil, err
	}
	return a.FromUniversal(review.FromStored(r), d), nil
}

// Validate enforces the MCP tool schema: task_type and proposed_action are
// required, urgency must be in the enumerated set and confidence numeric
// within [0,1].
func (a *MCP) Validate(native map[string]any) error {
	for _, field := range []string{"task_type", "proposed_action"} {
		if getString(native, field) == "" {
			return fmt.Errorf("%w: missing required field %q", domain.ErrValidation, field)
		}
	}
	if _, err := review.ParseUrgency(getString(native, "urgency")); err != nil {
		return err
	}
	confidence, ok := getFloatPtr(native, "confidence")
	if !ok {
		return fmt.Errorf("%w: confidence must be a number between 0 and 1", domain.ErrValidation)
	}
	if confidence != nil && (*confidence < 0 || *confidence > 1) {
		return fmt.Errorf("%w: confidence must be a number between 0 and 1, got %v", domain.ErrValidation, *confidence)
	}
	return nil
}

func withNotes(message, notes string) string {
	if notes == "" {
		return message
	}
	return message + " " + notes
}

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
	hitlDefaultTimeout = 5 * time.Minute
	hitlPollInterval   = 2 * time.Second
)

// HITL adapts LangChain's HumanInTheLoopMiddleware interrupts. One interrupt
// batches several tool calls (action_requests plus per-tool review_configs),
// so ToUniversal fans out into one review per tool call, and FromUniversal
// speaks the middleware's decision vocabulary: approve / reject / edit, where
// edit carries structured tool arguments recovered from the reviewer's
// modified action text.
type HITL struct {
	store        database.Store
	timeout      time.Duration
	pollInterval time.Duration
}

// NewHITL creates the HITL adapter. Non-positive timeout or pollInterval
// select the adapter defaults (300s budget, 2s polls).
func NewHITL(store database.Store, timeout, pollInterval time.Duration) *HITL {
	if timeout <= 0 {
		timeout = hitlDefaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = hitlPollInterval
	}
	return &HITL{store: store, timeout: timeout, pollInterval: pollInterval}
}

// Name returns "langchain_hitl".
func (a *HITL) Name() string { return "langchain_hitl" }

// ToUniversal converts a HITL interrupt into one universal review per tool
// call. Tool name, arguments, allowed decisions and the position within the
// batch travel in metadata so edits can be mapped back to the right call.
func (a *HITL) ToUniversal(native map[string]any) ([]review.UniversalReview, error) {
	if err := a.Validate(native); err != nil {
		return nil, err
	}

	actions, _ := native["action_requests"].([]any)
	configs, _ := native["review_configs"].([]any)

	// Allowed decisions per tool, from review_configs.
	allowedByTool := make(map[string][]any)
	for _, item := range configs {
		cfg, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := getString(cfg, "action_name")
		if allowed, ok := cfg["allowed_decisions"].([]any); ok {
			allowedByTool[name] = allowed
		}
	}

	urgency, err := review.ParseUrgency(getString(native, "urgency"))
	if err != nil {
		return nil, err
	}
	confidence, _ := getFloatPtr(native, "confidence_score")

	reviews := make([]review.UniversalReview, 0, len(actions))
	for idx, item := range actions {
		action, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: action_requests[%d] must be an object", domain.ErrValidation, idx)
		}
		toolName := getString(action, "name")
		if toolName == "" {
			toolName = "unknown_tool"
		}
		toolArgs := getMap(action, "arguments")

		allowed, ok := allowedByTool[toolName]
		if !ok {
			allowed = []any{"approve", "reject", "edit"}
		}

		metadata := map[string]any{
			"tool_name":         toolName,
			"tool_arguments":    toolArgs,
			"allowed_decisions": allowed,
			"thread_id":         native["thread_id"],
			"action_index":      idx,
			"config":            getMap(native, "config"),
		}
		for k, v := range getMap(native, "metadata") {
			metadata[k] = v
		}

		u := review.UniversalReview{
			TaskType:        "tool_call_" + toolName,
			ProposedAction:  formatToolCall(toolName, toolArgs),
			AgentReasoning:  getString(action, "description"),
			ConfidenceScore: confidence,
			Urgency:         urgency,
			Framework:       a.Name(),
			Metadata:        metadata,
			Blocking:        getBool(native, "blocking", true),
		}
		if err := u.Validate(); err != nil {
			return nil, err
		}
		reviews = append(reviews, u)
	}
	return reviews, nil
}

// FromUniversal renders the middleware decision shape. A modify decision
// becomes an "edit" whose args are recovered from the modified action text;
// when the text does not parse as JSON the original tool arguments are kept
// unchanged rather than failing the resuming agent.
func (a *HITL) FromUniversal(u review.UniversalReview, d *review.Decision) map[string]any {
	if d == nil {
		return map[string]any{
			"type":    "pending",
			"message": "Waiting for human review",
		}
	}

	resp := map[string]any{
		"timestamp": d.Timestamp.Format(time.RFC3339),
		"notes":     d.Notes,
	}
	switch d.DecisionType {
	case review.DecisionApprove:
		resp["type"] = "approve"
	case review.DecisionReject:
		resp["type"] = "reject"
		explanation := d.Notes
		if explanation == "" {
			explanation = "Rejected by human reviewer"
		}
		resp["explanation"] = explanation
	case review.DecisionModify:
		resp["type"] = "edit"
		resp["args"] = parseModifiedArgs(d.ModifiedAction, getMap(u.Metadata, "tool_arguments"))
	}
	return resp
}

// HandleBlocking polls until the review is decided and returns the HITL
// decision shape.
func (a *HITL) HandleBlocking(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error) {
	if timeout <= 0 {
		timeout = a.timeout
	}
	r, d, err := awaitDecision(ctx, a.store, reviewID, timeout, a.pollInterval)
	if err != nil {
		return nil, err
	}
	return a.FromUniversal(review.FromStored(r), d), nil
}

// Validate requires a non-empty action_requests batch.
func (a *HITL) Validate(native map[string]any) error {
	actions, ok := native["action_requests"].([]any)
	if !ok {
		return fmt.Errorf("%w: action_requests is required", domain.ErrValidation)
	}
	if len(actions) == 0 {
		return fmt.Errorf("%w: action_requests must not be empty", domain.ErrValidation)
	}
	return nil
}

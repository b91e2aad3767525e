package frameworks

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/port/database"
)

const (
	langchainDefaultTimeout = 10 * time.Minute
	langchainPollInterval   = 2 * time.Second
)

// LangChain adapts LangGraph state-graph interrupts. The native request
// carries the graph state and interrupt node; the response is a Command-style
// object the graph consumes to resume.
type LangChain struct {
	store        database.Store
	timeout      time.Duration
	pollInterval time.Duration
}

// NewLangChain creates the LangChain adapter. Non-positive timeout or
// pollInterval select the adapter defaults (600s budget for long-running
// graphs, 2s polls).
func NewLangChain(store database.Store, timeout, pollInterval time.Duration) *LangChain {
	if timeout <= 0 {
		timeout = langchainDefaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = langchainPollInterval
	}
	return &LangChain{store: store, timeout: timeout, pollInterval: pollInterval}
}

// Name returns "langchain".
func (a *LangChain) Name() string { return "langchain" }

// ToUniversal converts a LangGraph interrupt into a single universal review.
// The graph state and config ride along in metadata so the routing engine can
// match on them.
func (a *LangChain) ToUniversal(native map[string]any) ([]review.UniversalReview, error) {
	state := getMap(native, "state")
	config := getMap(native, "config")

	urgency, err := review.ParseUrgency(getString(native, "urgency"))
	if err != nil {
		return nil, err
	}
	confidence, _ := getFloatPtr(native, "confidence_score")

	taskType := getString(native, "task_type")
	if taskType == "" {
		taskType = "langchain_interrupt"
	}
	proposedAction := getString(native, "proposed_action")
	if proposedAction == "" {
		proposedAction = fmt.Sprint(state)
	}
	reasoning := getString(native, "reasoning")
	if reasoning == "" {
		reasoning = getString(config, "reasoning")
	}

	metadata := map[string]any{
		"state":          state,
		"config":         config,
		"interrupt_node": native["interrupt_node"],
	}
	for k, v := range getMap(native, "metadata") {
		metadata[k] = v
	}

	u := review.UniversalReview{
		TaskType:        taskType,
		ProposedAction:  proposedAction,
		AgentReasoning:  reasoning,
		ConfidenceScore: confidence,
		Urgency:         urgency,
		Framework:       a.Name(),
		Metadata:        metadata,
		Blocking:        getBool(native, "blocking", true), // interrupts block by default
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return []review.UniversalReview{u}, nil
}

// FromUniversal renders the Command object LangGraph uses to resume an
// interrupted workflow.
func (a *LangChain) FromUniversal(u review.UniversalReview, d *review.Decision) map[string]any {
	if d == nil {
		return map[string]any{
			"command": "wait",
			"status":  "pending",
			"message": "Waiting for human review",
		}
	}

	resp := map[string]any{
		"command":       "resume",
		"decision_type": string(d.DecisionType),
		"timestamp":     d.Timestamp.Format(time.RFC3339),
	}
	switch d.DecisionType {
	case review.DecisionApprove:
		resp["action"] = "approved"
		resp["resume_value"] = map[string]any{
			"approved": true,
			"action":   u.ProposedAction,
		}
	case review.DecisionReject:
		resp["action"] = "rejected"
		resp["resume_value"] = map[string]any{
			"approved": false,
			"reason":   d.Notes,
		}
	case review.DecisionModify:
		resp["action"] = "modified"
		resp["resume_value"] = map[string]any{
			"approved":        true,
			"action":          d.ModifiedAction,
			"modified":        true,
			"original_action": u.ProposedAction,
		}
	}
	return resp
}

// HandleBlocking polls until the review is decided and returns the resume
// Command.
func (a *LangChain) HandleBlocking(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error) {
	if timeout <= 0 {
		timeout = a.timeout
	}
	r, d, err := awaitDecision(ctx, a.store, reviewID, timeout, a.pollInterval)
	if err != nil {
		return nil, err
	}
	return a.FromUniversal(review.FromStored(r), d), nil
}

// Validate accepts everything; interrupts have no strict native schema and
// fall back to describing the raw state.
func (a *LangChain) Validate(_ map[string]any) error { return nil }

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
	workflowDefaultTimeout = 10 * time.Minute
	workflowPollInterval   = 2 * time.Second
)

// Workflow adapts generic suspend/resume workflow engines (the Mastra
// pattern): a workflow suspends at a decision point and resumes when the
// human verdict is delivered as resume data.
type Workflow struct {
	store        database.Store
	timeout      time.Duration
	pollInterval time.Duration
}

// NewWorkflow creates the workflow adapter. Non-positive timeout or
// pollInterval select the adapter defaults (600s budget for long-running
// workflows, 2s polls).
func NewWorkflow(store database.Store, timeout, pollInterval time.Duration) *Workflow {
	if timeout <= 0 {
		timeout = workflowDefaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = workflowPollInterval
	}
	return &Workflow{store: store, timeout: timeout, pollInterval: pollInterval}
}

// Name returns "workflow".
func (a *Workflow) Name() string { return "workflow" }

// ToUniversal converts a workflow suspension into a single universal review.
// Workflow identity and step context ride along in metadata.
func (a *Workflow) ToUniversal(native map[string]any) ([]review.UniversalReview, error) {
	if err := a.Validate(native); err != nil {
		return nil, err
	}

	urgency, err := review.ParseUrgency(getString(native, "urgency"))
	if err != nil {
		return nil, err
	}
	confidence, _ := getFloatPtr(native, "confidence_score")

	taskType := getString(native, "task_type")
	if taskType == "" {
		taskType = "workflow_step"
	}

	metadata := map[string]any{
		"workflow_id":      native["workflow_id"],
		"workflow_context": getMap(native, "workflow_context"),
		"step_info":        getMap(native, "step_info"),
		"execution_id":     native["execution_id"],
	}
	for k, v := range getMap(native, "metadata") {
		metadata[k] = v
	}

	u := review.UniversalReview{
		TaskType:        taskType,
		ProposedAction:  getString(native, "proposed_action"),
		AgentReasoning:  getString(native, "reasoning"),
		ConfidenceScore: confidence,
		Urgency:         urgency,
		Framework:       a.Name(),
		Metadata:        metadata,
		Blocking:        getBool(native, "blocking", true), // suspended workflows block by default
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return []review.UniversalReview{u}, nil
}

// FromUniversal renders the workflow resume payload. Pending reviews report
// the suspension; decided reviews carry resume_data telling the engine
// whether and how to continue.
func (a *Workflow) FromUniversal(u review.UniversalReview, d *review.Decision) map[string]any {
	meta := u.Metadata
	if meta == nil {
		meta = map[string]any{}
	}

	if d == nil {
		return map[string]any{
			"status":      "suspended",
			"message":     "Workflow suspended for human review",
			"workflow_id": meta["workflow_id"],
		}
	}

	resp := map[string]any{
		"status":        "resuming",
		"workflow_id":   meta["workflow_id"],
		"execution_id":  meta["execution_id"],
		"decision_type": string(d.DecisionType),
		"timestamp":     d.Timestamp.Format(time.RFC3339),
	}
	switch d.DecisionType {
	case review.DecisionApprove:
		resp["resume_data"] = map[string]any{
			"approved":          true,
			"action":            u.ProposedAction,
			"continue_workflow": true,
		}
	case review.DecisionReject:
		resp["resume_data"] = map[string]any{
			"approved":          false,
			"reason":            d.Notes,
			"continue_workflow": false,
		}
	case review.DecisionModify:
		resp["resume_data"] = map[string]any{
			"approved":          true,
			"action":            d.ModifiedAction,
			"modified":          true,
			"original_action":   u.ProposedAction,
			"continue_workflow": true,
		}
	}
	return resp
}

// HandleBlocking polls until the review is decided and returns the resume
// payload.
func (a *Workflow) HandleBlocking(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error) {
	if timeout <= 0 {
		timeout = a.timeout
	}
	r, d, err := awaitDecision(ctx, a.store, reviewID, timeout, a.pollInterval)
	if err != nil {
		return nil, err
	}
	return a.FromUniversal(review.FromStored(r), d), nil
}

// Validate requires proposed_action, and a workflow_id whenever workflow
// context is supplied.
func (a *Workflow) Validate(native map[string]any) error {
	if getString(native, "proposed_action") == "" {
		return fmt.Errorf("%w: missing required field %q", domain.ErrValidation, "proposed_action")
	}
	if _, hasCtx := native["workflow_context"]; hasCtx {
		if _, hasID := native["workflow_id"]; !hasID {
			return fmt.Errorf("%w: workflow_id is required when workflow_context is provided", domain.ErrValidation)
		}
	}
	return nil
}

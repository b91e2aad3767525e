package frameworks

import (
	"context"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/port/database"
)

const (
	restDefaultTimeout = 5 * time.Minute
	restPollInterval   = time.Second
)

// Rest is the simplest adapter: requests arrive already close to the
// universal shape and responses are plain JSON objects.
type Rest struct {
	store        database.Store
	timeout      time.Duration
	pollInterval time.Duration
}

// NewRest creates the REST adapter. Non-positive timeout or pollInterval
// select the adapter defaults (300s budget, 1s polls).
func NewRest(store database.Store, timeout, pollInterval time.Duration) *Rest {
	if timeout <= 0 {
		timeout = restDefaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = restPollInterval
	}
	return &Rest{store: store, timeout: timeout, pollInterval: pollInterval}
}

// Name returns "rest".
func (a *Rest) Name() string { return "rest" }

// ToUniversal converts a REST request body to a single universal review.
func (a *Rest) ToUniversal(native map[string]any) ([]review.UniversalReview, error) {
	urgency, err := review.ParseUrgency(getString(native, "urgency"))
	if err != nil {
		return nil, err
	}
	confidence, _ := getFloatPtr(native, "confidence_score")

	u := review.UniversalReview{
		TaskType:        getString(native, "task_type"),
		ProposedAction:  getString(native, "proposed_action"),
		AgentReasoning:  getString(native, "agent_reasoning"),
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

// FromUniversal renders the REST response shape: pending reviews echo the
// record, decided reviews add the decision vocabulary
// (approved_action / rejected / modified_action).
func (a *Rest) FromUniversal(u review.UniversalReview, d *review.Decision) map[string]any {
	if d == nil {
		return map[string]any{
			"status": "pending",
			"review": u,
		}
	}

	resp := map[string]any{
		"status":        "completed",
		"decision_type": string(d.DecisionType),
		"review":        u,
	}
	switch d.DecisionType {
	case review.DecisionApprove:
		resp["approved_action"] = u.ProposedAction
	case review.DecisionReject:
		resp["rejected"] = true
		resp["notes"] = d.Notes
	case review.DecisionModify:
		resp["modified_action"] = d.ModifiedAction
	}
	return resp
}

// HandleBlocking polls until the review is decided and returns the REST
// response shape.
func (a *Rest) HandleBlocking(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error) {
	if timeout <= 0 {
		timeout = a.timeout
	}
	r, d, err := awaitDecision(ctx, a.store, reviewID, timeout, a.pollInterval)
	if err != nil {
		return nil, err
	}
	return a.FromUniversal(review.FromStored(r), d), nil
}

// Validate accepts everything; REST requests are fully checked by
// ToUniversal's universal validation.
func (a *Rest) Validate(_ map[string]any) error { return nil }

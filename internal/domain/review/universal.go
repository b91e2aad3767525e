package review

import (
	"fmt"

	"github.com/Strob0t/HumanCheck/internal/domain"
)

// UniversalReview is the canonical, framework-agnostic representation of an
// escalation request. Every framework adapter converts its native request
// shape into this form and back; it is constructed fresh per conversion and
// never mutated concurrently.
type UniversalReview struct {
	TaskType        string         `json:"task_type"`
	ProposedAction  string         `json:"proposed_action"`
	AgentReasoning  string         `json:"agent_reasoning,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	Urgency         Urgency        `json:"urgency"`
	Framework       string         `json:"framework,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Blocking        bool           `json:"blocking"`
}

// Validate checks the universal invariants: non-empty task_type and
// proposed_action, urgency within the enumerated set, confidence in [0,1].
func (u *UniversalReview) Validate() error {
	if u.TaskType == "" {
		return fmt.Errorf("%w: task_type is required", domain.ErrValidation)
	}
	if u.ProposedAction == "" {
		return fmt.Errorf("%w: proposed_action is required", domain.ErrValidation)
	}
	if _, err := ParseUrgency(string(u.Urgency)); err != nil {
		return err
	}
	if u.ConfidenceScore != nil {
		if c := *u.ConfidenceScore; c < 0 || c > 1 {
			return fmt.Errorf("%w: confidence_score must be between 0 and 1, got %v", domain.ErrValidation, c)
		}
	}
	return nil
}

// FromStored rebuilds a UniversalReview from a persisted review. Used by the
// blocking wait loop to hand the stored fields back to the adapter that
// produced them.
func FromStored(r *Review) UniversalReview {
	return UniversalReview{
		TaskType:        r.TaskType,
		ProposedAction:  r.ProposedAction,
		AgentReasoning:  r.AgentReasoning,
		ConfidenceScore: r.ConfidenceScore,
		Urgency:         r.Urgency,
		Framework:       r.Framework,
		Metadata:        r.Metadata,
	}
}

// Attributes flattens the review into the attribute map the routing engine
// evaluates rule conditions against. Metadata is nested under "metadata" and
// reached via dot-path lookup.
func (u *UniversalReview) Attributes() map[string]any {
	attrs := map[string]any{
		"task_type": u.TaskType,
		"urgency":   string(u.Urgency),
		"framework": u.Framework,
	}
	if u.ConfidenceScore != nil {
		attrs["confidence_score"] = *u.ConfidenceScore
	}
	meta := u.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	attrs["metadata"] = meta
	return attrs
}

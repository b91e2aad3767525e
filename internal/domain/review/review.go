// Package review defines domain types for human review requests and their
// decisions, assignments and lifecycle states.
package review

import (
	"fmt"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain"
)

// Status represents the lifecycle state of a review.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusModified Status = "modified"
)

// Urgency is the caller-declared urgency of a review request.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// ParseUrgency validates a wire-format urgency string. An empty string
// defaults to medium.
func ParseUrgency(s string) (Urgency, error) {
	switch Urgency(s) {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return Urgency(s), nil
	case "":
		return UrgencyMedium, nil
	default:
		return "", fmt.Errorf("%w: invalid urgency %q (must be low, medium, high or critical)", domain.ErrValidation, s)
	}
}

// DecisionType is the human reviewer's verdict on a review.
type DecisionType string

const (
	DecisionApprove DecisionType = "approve"
	DecisionReject  DecisionType = "reject"
	DecisionModify  DecisionType = "modify"
)

// ParseDecisionType validates a wire-format decision type string.
func ParseDecisionType(s string) (DecisionType, error) {
	switch DecisionType(s) {
	case DecisionApprove, DecisionReject, DecisionModify:
		return DecisionType(s), nil
	default:
		return "", fmt.Errorf("%w: invalid decision_type %q (must be approve, reject or modify)", domain.ErrValidation, s)
	}
}

// StatusForDecision maps a decision type to the review status it produces.
func StatusForDecision(dt DecisionType) Status {
	switch dt {
	case DecisionApprove:
		return StatusApproved
	case DecisionReject:
		return StatusRejected
	case DecisionModify:
		return StatusModified
	default:
		return StatusPending
	}
}

// Review is the persisted form of an escalation request.
type Review struct {
	ID              string         `json:"id"`
	TaskType        string         `json:"task_type"`
	ProposedAction  string         `json:"proposed_action"`
	AgentReasoning  string         `json:"agent_reasoning,omitempty"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	Urgency         Urgency        `json:"urgency"`
	Framework       string         `json:"framework,omitempty"`
	Status          Status         `json:"status"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Decision is the human verdict on a review. At most one exists per review;
// the uniqueness is enforced by the store, not re-derived here.
type Decision struct {
	ID             string       `json:"id"`
	ReviewID       string       `json:"review_id"`
	ReviewerName   string       `json:"reviewer_name,omitempty"`
	DecisionType   DecisionType `json:"decision_type"`
	ModifiedAction string       `json:"modified_action,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Timestamp      time.Time    `json:"timestamp"`
}

// Assignment records which reviewer or team a review was routed to.
type Assignment struct {
	ID                 string    `json:"id"`
	ReviewID           string    `json:"review_id"`
	ReviewerIdentifier string    `json:"reviewer_identifier,omitempty"`
	TeamName           string    `json:"team_name,omitempty"`
	AssignedByRuleID   string    `json:"assigned_by_rule_id,omitempty"`
	AssignedAt         time.Time `json:"assigned_at"`
}

// DecideRequest holds the fields for recording a decision on a review.
type DecideRequest struct {
	DecisionType   DecisionType `json:"decision_type"`
	ModifiedAction string       `json:"modified_action,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	ReviewerName   string       `json:"reviewer_name,omitempty"`
}

// Validate checks the decide request for correctness.
func (r *DecideRequest) Validate() error {
	if _, err := ParseDecisionType(string(r.DecisionType)); err != nil {
		return err
	}
	if r.DecisionType == DecisionModify && r.ModifiedAction == "" {
		return fmt.Errorf("%w: modified_action is required for modify decisions", domain.ErrValidation)
	}
	return nil
}

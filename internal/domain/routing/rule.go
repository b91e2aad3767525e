// Package routing defines routing rules and the condition evaluator that
// decides which reviewer a review is assigned to.
package routing

import (
	"fmt"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain"
)

// Rule is a declarative routing rule. Rules are created and edited through
// the administrative API or configuration; the routing engine only reads them.
type Rule struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Conditions   map[string]any `json:"conditions"`
	Priority     int            `json:"priority"`
	IsActive     bool           `json:"is_active"`
	AssignTo     string         `json:"assign_to,omitempty"`
	AssignToTeam string         `json:"assign_to_team,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// CreateRuleRequest is the payload for creating a routing rule.
type CreateRuleRequest struct {
	Name         string         `json:"name"`
	Conditions   map[string]any `json:"conditions"`
	Priority     int            `json:"priority"`
	AssignTo     string         `json:"assign_to"`
	AssignToTeam string         `json:"assign_to_team"`
}

// Validate checks the request. Rules created through the API must name a
// target; a targetless rule can never take a review.
func (r CreateRuleRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if r.AssignTo == "" && r.AssignToTeam == "" {
		return fmt.Errorf("%w: assign_to or assign_to_team is required", domain.ErrValidation)
	}
	return nil
}

// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/domain/routing"
)

// Store is the port interface for database operations.
//
// The store owns the at-most-one-decision-per-review invariant: CreateDecision
// must fail with domain.ErrDecisionConflict when a decision already exists,
// backed by a uniqueness constraint rather than application-level locking.
type Store interface {
	// Reviews
	CreateReview(ctx context.Context, r *review.Review) error
	GetReview(ctx context.Context, id string) (*review.Review, error)
	ListReviews(ctx context.Context, status review.Status, limit int) ([]review.Review, error)
	UpdateReviewStatus(ctx context.Context, id string, status review.Status) error

	// Decisions
	CreateDecision(ctx context.Context, d *review.Decision) error
	GetDecisionForReview(ctx context.Context, reviewID string) (*review.Decision, error)

	// Routing rules, ordered by priority DESC, ties broken by created_at ASC.
	ListActiveRules(ctx context.Context) ([]routing.Rule, error)
	ListRules(ctx context.Context) ([]routing.Rule, error)
	CreateRule(ctx context.Context, r *routing.Rule) error
	DeleteRule(ctx context.Context, id string) error

	// Assignments
	CreateAssignment(ctx context.Context, a *review.Assignment) error
	ListAssignmentsForReview(ctx context.Context, reviewID string) ([]review.Assignment, error)
}

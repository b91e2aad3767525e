package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/HumanCheck/internal/domain"
	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/port/database"
	"github.com/Strob0t/HumanCheck/internal/port/framework"
	"github.com/Strob0t/HumanCheck/internal/port/messagequeue"
)

// SubmitResult pairs a persisted review with the adapter's native "still
// pending" response for it.
type SubmitResult struct {
	Review   review.Review  `json:"review"`
	Response map[string]any `json:"response"`
}

// ReviewService owns the escalation lifecycle: native request in, universal
// review persisted and routed, decision recorded, native response out.
type ReviewService struct {
	store    database.Store
	registry *framework.Registry
	router   *RouterService
	queue    messagequeue.Queue   // optional; nil disables event publishing
	notify   *NotificationService // optional; nil disables notifications
}

// NewReviewService creates a ReviewService. queue and notify may be nil when
// no message broker or notification channels are configured.
func NewReviewService(store database.Store, registry *framework.Registry, router *RouterService, queue messagequeue.Queue, notify *NotificationService) *ReviewService {
	return &ReviewService{
		store:    store,
		registry: registry,
		router:   router,
		queue:    queue,
		notify:   notify,
	}
}

// Submit converts a native request through the named framework adapter,
// persists one review per universal record (batched interrupts fan out) and
// routes each to a reviewer. The returned results carry the adapter's pending
// response shapes; blocking resolution is a separate call so the HTTP layer
// controls its own timeout.
func (s *ReviewService) Submit(ctx context.Context, frameworkName string, native map[string]any) ([]SubmitResult, error) {
	adapter, ok := s.registry.Get(frameworkName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown framework %q", domain.ErrValidation, frameworkName)
	}

	records, err := adapter.ToUniversal(native)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: request contains nothing to review", domain.ErrValidation)
	}

	now := time.Now().UTC()
	results := make([]SubmitResult, 0, len(records))
	for _, u := range records {
		r := &review.Review{
			ID:              uuid.NewString(),
			TaskType:        u.TaskType,
			ProposedAction:  u.ProposedAction,
			AgentReasoning:  u.AgentReasoning,
			ConfidenceScore: u.ConfidenceScore,
			Urgency:         u.Urgency,
			Framework:       u.Framework,
			Status:          review.StatusPending,
			Metadata:        u.Metadata,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.CreateReview(ctx, r); err != nil {
			return nil, fmt.Errorf("create review: %w", err)
		}

		assignments, err := s.router.RouteReview(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("route review %s: %w", r.ID, err)
		}

		slog.Info("review created",
			"review_id", r.ID,
			"framework", r.Framework,
			"task_type", r.TaskType,
			"urgency", r.Urgency,
			"blocking", u.Blocking,
			"assignments", len(assignments),
		)
		s.publish(ctx, messagequeue.SubjectReviewCreated, messagequeue.ReviewCreatedPayload{
			ReviewID:  r.ID,
			TaskType:  r.TaskType,
			Urgency:   string(r.Urgency),
			Framework: r.Framework,
			Blocking:  u.Blocking,
		})
		for _, a := range assignments {
			s.notify.ReviewAssigned(ctx, r, a)
		}

		results = append(results, SubmitResult{
			Review:   *r,
			Response: adapter.FromUniversal(u, nil),
		})
	}
	return results, nil
}

// Get returns a review and its decision, if one exists.
func (s *ReviewService) Get(ctx context.Context, id string) (*review.Review, *review.Decision, error) {
	r, err := s.store.GetReview(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	d, err := s.store.GetDecisionForReview(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return r, nil, nil
		}
		return nil, nil, err
	}
	return r, d, nil
}

// List returns reviews, optionally filtered by status.
func (s *ReviewService) List(ctx context.Context, status review.Status, limit int) ([]review.Review, error) {
	return s.store.ListReviews(ctx, status, limit)
}

// Decide records the human verdict on a review. The store enforces the
// at-most-one-decision invariant; a second decision surfaces
// domain.ErrDecisionConflict and the original stands.
func (s *ReviewService) Decide(ctx context.Context, reviewID string, req review.DecideRequest) (*review.Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	d := &review.Decision{
		ID:             uuid.NewString(),
		ReviewID:       reviewID,
		ReviewerName:   req.ReviewerName,
		DecisionType:   req.DecisionType,
		ModifiedAction: req.ModifiedAction,
		Notes:          req.Notes,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.store.CreateDecision(ctx, d); err != nil {
		return nil, err
	}
	if err := s.store.UpdateReviewStatus(ctx, reviewID, review.StatusForDecision(req.DecisionType)); err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}

	slog.Info("review decided",
		"review_id", reviewID,
		"decision_type", req.DecisionType,
		"reviewer", req.ReviewerName,
	)
	s.publish(ctx, messagequeue.SubjectReviewDecided, messagequeue.ReviewDecidedPayload{
		ReviewID:     reviewID,
		DecisionType: string(req.DecisionType),
		ReviewerName: req.ReviewerName,
	})
	s.notify.ReviewDecided(ctx, r, d)

	return d, nil
}

// Await blocks until the review has a decision, converting it with the
// adapter that originally produced the review. A non-positive timeout selects
// the adapter's default budget.
func (s *ReviewService) Await(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error) {
	r, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	name := r.Framework
	if name == "" {
		name = "rest"
	}
	adapter, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for framework %q", domain.ErrValidation, name)
	}
	return adapter.HandleBlocking(ctx, reviewID, timeout)
}

// Assignments returns the routing assignments created for a review.
func (s *ReviewService) Assignments(ctx context.Context, reviewID string) ([]review.Assignment, error) {
	return s.store.ListAssignmentsForReview(ctx, reviewID)
}

// Frameworks returns the registered framework names.
func (s *ReviewService) Frameworks() []string {
	return s.registry.Names()
}

// publish sends a lifecycle event, logging but not failing on broker errors:
// event delivery is best-effort and must never block a review.
func (s *ReviewService) publish(ctx context.Context, subject string, payload any) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal event payload", "subject", subject, "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("publish event failed", "subject", subject, "error", err)
	}
}

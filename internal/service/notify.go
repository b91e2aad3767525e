package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/port/notifier"
	"github.com/Strob0t/HumanCheck/internal/resilience"
)

const (
	breakerMaxFailures = 5
	breakerCooldown    = 30 * time.Second
)

// NotificationService fans review lifecycle events out to the configured
// channels. Delivery is best-effort: a failed webhook or mail must never fail
// the review it announces. Each broadcast channel sits behind a circuit
// breaker so a dead webhook endpoint stops costing an HTTP timeout per review.
type NotificationService struct {
	broadcast []notifier.Notifier
	breakers  map[string]*resilience.Breaker
	direct    notifier.DirectNotifier // optional; reaches the assigned reviewer
}

// NewNotificationService creates a NotificationService. Both arguments may be
// empty or nil when no channels are configured.
func NewNotificationService(broadcast []notifier.Notifier, direct notifier.DirectNotifier) *NotificationService {
	breakers := make(map[string]*resilience.Breaker, len(broadcast))
	for _, b := range broadcast {
		breakers[b.Name()] = resilience.NewBreaker(breakerMaxFailures, breakerCooldown)
	}
	return &NotificationService{broadcast: broadcast, breakers: breakers, direct: direct}
}

// ReviewAssigned announces a freshly routed review to the broadcast channels
// and, when the reviewer identifier is an email address, mails the reviewer
// directly.
func (s *NotificationService) ReviewAssigned(ctx context.Context, r *review.Review, a review.Assignment) {
	if s == nil {
		return
	}

	target := a.ReviewerIdentifier
	if target == "" {
		target = "team " + a.TeamName
	}

	n := notifier.Notification{
		Title:    "Review awaiting decision",
		Message:  fmt.Sprintf("[%s/%s] %s — assigned to %s", r.TaskType, r.Urgency, truncate(r.ProposedAction, 160), target),
		Level:    levelForUrgency(r.Urgency),
		Source:   "review.created",
		ReviewID: r.ID,
	}
	s.send(ctx, n)

	if s.direct != nil && strings.Contains(a.ReviewerIdentifier, "@") {
		subject := fmt.Sprintf("[HumanCheck] %s review awaiting your decision", r.Urgency)
		body := fmt.Sprintf(
			"Review %s needs your decision.\n\nTask type: %s\nProposed action: %s\nAgent reasoning: %s\n",
			r.ID, r.TaskType, r.ProposedAction, r.AgentReasoning,
		)
		if err := s.direct.SendDirect(ctx, a.ReviewerIdentifier, subject, body); err != nil {
			slog.Warn("direct notification failed",
				"review_id", r.ID, "recipient", a.ReviewerIdentifier, "error", err)
		}
	}
}

// ReviewDecided announces the verdict to the broadcast channels.
func (s *NotificationService) ReviewDecided(ctx context.Context, r *review.Review, d *review.Decision) {
	if s == nil {
		return
	}

	level := "success"
	if d.DecisionType == review.DecisionReject {
		level = "warning"
	}

	s.send(ctx, notifier.Notification{
		Title:    "Review decided",
		Message:  fmt.Sprintf("%s was %s by %s", truncate(r.ProposedAction, 160), pastTense(d.DecisionType), reviewerOrUnknown(d.ReviewerName)),
		Level:    level,
		Source:   "review.decided",
		ReviewID: r.ID,
	})
}

func (s *NotificationService) send(ctx context.Context, n notifier.Notification) {
	for _, b := range s.broadcast {
		err := s.breakers[b.Name()].Execute(func() error {
			return b.Send(ctx, n)
		})
		if err != nil {
			slog.Warn("notification failed",
				"notifier", b.Name(), "review_id", n.ReviewID, "error", err)
		}
	}
}

func levelForUrgency(u review.Urgency) string {
	switch u {
	case review.UrgencyCritical:
		return "error"
	case review.UrgencyHigh:
		return "warning"
	default:
		return "info"
	}
}

func pastTense(d review.DecisionType) string {
	switch d {
	case review.DecisionApprove:
		return "approved"
	case review.DecisionReject:
		return "rejected"
	case review.DecisionModify:
		return "modified"
	}
	return string(d)
}

func reviewerOrUnknown(name string) string {
	if name == "" {
		return "an unnamed reviewer"
	}
	return name
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

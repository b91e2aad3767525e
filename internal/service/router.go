package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/domain/routing"
	"github.com/Strob0t/HumanCheck/internal/port/cache"
	"github.com/Strob0t/HumanCheck/internal/port/database"
)

const rulesCacheKey = "routing:rules:active"

// RouterService assigns newly created reviews to reviewers by evaluating
// routing rules in descending priority order. The first matching rule wins;
// when nothing matches, the configured default reviewer takes the review.
type RouterService struct {
	store            database.Store
	evaluator        routing.Evaluator
	defaultReviewers []string
	rulesCache       cache.Cache // optional; nil disables caching
	cacheTTL         time.Duration
}

// NewRouterService creates a RouterService. rulesCache may be nil to read
// rules from the store on every routing call.
func NewRouterService(store database.Store, defaultReviewers []string, rulesCache cache.Cache, cacheTTL time.Duration) *RouterService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &RouterService{
		store:            store,
		defaultReviewers: defaultReviewers,
		rulesCache:       rulesCache,
		cacheTTL:         cacheTTL,
	}
}

// RouteReview evaluates the active rules against the review's attributes and
// creates exactly one assignment for the first match (first-match-wins is a
// deliberate policy, not fan-out). A rule with a malformed condition aborts
// routing with an error instead of being skipped: silently ignoring a
// misconfigured rule could leave a high-stakes action unreviewed.
//
// When no rule matches and no default reviewer is configured, no assignment
// is created; the review still exists and resolves via direct status polling.
func (s *RouterService) RouteReview(ctx context.Context, r *review.Review) ([]review.Assignment, error) {
	rules, err := s.loadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load routing rules: %w", err)
	}

	u := review.FromStored(r)
	attrs := u.Attributes()

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		matched, err := s.evaluator.Evaluate(rule.Conditions, attrs)
		if err != nil {
			return nil, fmt.Errorf("rule %s (%s): %w", rule.ID, rule.Name, err)
		}
		if !matched {
			continue
		}
		if rule.AssignTo == "" && rule.AssignToTeam == "" {
			// A matching rule without a target cannot take the review;
			// keep evaluating lower-priority rules.
			slog.Warn("routing rule matched but has no target",
				"review_id", r.ID, "rule_id", rule.ID)
			continue
		}

		a, err := s.assign(ctx, r.ID, rule.AssignTo, rule.AssignToTeam, rule.ID)
		if err != nil {
			return nil, err
		}
		slog.Info("review routed",
			"review_id", r.ID,
			"rule_id", rule.ID,
			"reviewer", rule.AssignTo,
			"team", rule.AssignToTeam,
		)
		return []review.Assignment{*a}, nil
	}

	if len(s.defaultReviewers) == 0 {
		slog.Warn("no routing rule matched and no default reviewer configured",
			"review_id", r.ID)
		return []review.Assignment{}, nil
	}

	a, err := s.assign(ctx, r.ID, s.defaultReviewers[0], "", "")
	if err != nil {
		return nil, err
	}
	slog.Info("review routed to default reviewer",
		"review_id", r.ID, "reviewer", s.defaultReviewers[0])
	return []review.Assignment{*a}, nil
}

func (s *RouterService) assign(ctx context.Context, reviewID, reviewer, team, ruleID string) (*review.Assignment, error) {
	a := &review.Assignment{
		ID:                 uuid.NewString(),
		ReviewID:           reviewID,
		ReviewerIdentifier: reviewer,
		TeamName:           team,
		AssignedByRuleID:   ruleID,
		AssignedAt:         time.Now().UTC(),
	}
	if err := s.store.CreateAssignment(ctx, a); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return a, nil
}

// loadRules returns the active rules ordered by descending priority (ties
// broken by creation order, oldest first — the store guarantees the order).
// Results are cached briefly so bursts of reviews do not hammer the store.
func (s *RouterService) loadRules(ctx context.Context) ([]routing.Rule, error) {
	if s.rulesCache != nil {
		if data, ok, err := s.rulesCache.Get(ctx, rulesCacheKey); err == nil && ok {
			var rules []routing.Rule
			if err := json.Unmarshal(data, &rules); err == nil {
				return rules, nil
			}
			// Corrupt cache entry; fall through to the store.
		}
	}

	rules, err := s.store.ListActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	if s.rulesCache != nil {
		if data, err := json.Marshal(rules); err == nil {
			if err := s.rulesCache.Set(ctx, rulesCacheKey, data, s.cacheTTL); err != nil {
				slog.Warn("cache routing rules failed", "error", err)
			}
		}
	}
	return rules, nil
}

// InvalidateRules drops the cached rule set, forcing the next routing call to
// re-read from the store. Called after administrative rule edits.
func (s *RouterService) InvalidateRules(ctx context.Context) {
	if s.rulesCache == nil {
		return
	}
	if err := s.rulesCache.Delete(ctx, rulesCacheKey); err != nil {
		slog.Warn("invalidate rules cache failed", "error", err)
	}
}

// ListRules returns all routing rules, active or not.
func (s *RouterService) ListRules(ctx context.Context) ([]routing.Rule, error) {
	return s.store.ListRules(ctx)
}

// CreateRule validates and persists a routing rule, then invalidates the
// cached rule set so the new rule takes effect immediately.
func (s *RouterService) CreateRule(ctx context.Context, req routing.CreateRuleRequest) (*routing.Rule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r := &routing.Rule{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Conditions:   req.Conditions,
		Priority:     req.Priority,
		IsActive:     true,
		AssignTo:     req.AssignTo,
		AssignToTeam: req.AssignToTeam,
	}
	if r.Conditions == nil {
		r.Conditions = map[string]any{}
	}
	if err := s.store.CreateRule(ctx, r); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}

	s.InvalidateRules(ctx)
	slog.Info("routing rule created", "rule_id", r.ID, "name", r.Name, "priority", r.Priority)
	return r, nil
}

// DeleteRule removes a routing rule and invalidates the cached rule set.
func (s *RouterService) DeleteRule(ctx context.Context, id string) error {
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return err
	}
	s.InvalidateRules(ctx)
	slog.Info("routing rule deleted", "rule_id", id)
	return nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/HumanCheck/internal/domain"
	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/domain/routing"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Reviews ---

func (s *Store) CreateReview(ctx context.Context, r *review.Review) error {
	metadataJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO reviews (id, task_type, proposed_action, agent_reasoning, confidence_score, urgency, framework, status, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.TaskType, r.ProposedAction, nullIfEmpty(r.AgentReasoning), r.ConfidenceScore,
		string(r.Urgency), nullIfEmpty(r.Framework), string(r.Status), metadataJSON, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (s *Store) GetReview(ctx context.Context, id string) (*review.Review, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, task_type, proposed_action, COALESCE(agent_reasoning, ''), confidence_score, urgency, COALESCE(framework, ''), status, metadata, created_at, updated_at
		 FROM reviews WHERE id = $1`, id)

	r, err := scanReview(row)
	if err != nil {
		return nil, notFoundWrap(err, "get review %s", id)
	}
	return &r, nil
}

func (s *Store) ListReviews(ctx context.Context, status review.Status, limit int) ([]review.Review, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, task_type, proposed_action, COALESCE(agent_reasoning, ''), confidence_score, urgency, COALESCE(framework, ''), status, metadata, created_at, updated_at
	          FROM reviews`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, string(status), limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []review.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *Store) UpdateReviewStatus(ctx context.Context, id string, status review.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reviews SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status))
	return execExpectOne(tag, err, "update review status %s", id)
}

// --- Decisions ---

func (s *Store) CreateDecision(ctx context.Context, d *review.Decision) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO decisions (id, review_id, reviewer_name, decision_type, modified_action, notes, decided_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.ReviewID, nullIfEmpty(d.ReviewerName), string(d.DecisionType),
		nullIfEmpty(d.ModifiedAction), nullIfEmpty(d.Notes), d.Timestamp)
	if err != nil {
		// The UNIQUE(review_id) constraint enforces at most one decision
		// per review; the first decision always stands.
		if isUniqueViolation(err) {
			return fmt.Errorf("decision for review %s: %w", d.ReviewID, domain.ErrDecisionConflict)
		}
		return fmt.Errorf("create decision: %w", err)
	}
	return nil
}

func (s *Store) GetDecisionForReview(ctx context.Context, reviewID string) (*review.Decision, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, review_id, COALESCE(reviewer_name, ''), decision_type, COALESCE(modified_action, ''), COALESCE(notes, ''), decided_at
		 FROM decisions WHERE review_id = $1`, reviewID)

	var d review.Decision
	var decisionType string
	err := row.Scan(&d.ID, &d.ReviewID, &d.ReviewerName, &decisionType, &d.ModifiedAction, &d.Notes, &d.Timestamp)
	if err != nil {
		return nil, notFoundWrap(err, "get decision for review %s", reviewID)
	}
	d.DecisionType = review.DecisionType(decisionType)
	return &d, nil
}

// --- Routing rules ---

func (s *Store) ListActiveRules(ctx context.Context) ([]routing.Rule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, conditions, priority, is_active, COALESCE(assign_to, ''), COALESCE(assign_to_team, ''), created_at
		 FROM routing_rules WHERE is_active ORDER BY priority DESC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func (s *Store) ListRules(ctx context.Context) ([]routing.Rule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, conditions, priority, is_active, COALESCE(assign_to, ''), COALESCE(assign_to_team, ''), created_at
		 FROM routing_rules ORDER BY priority DESC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func (s *Store) CreateRule(ctx context.Context, r *routing.Rule) error {
	conditionsJSON, err := json.Marshal(r.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO routing_rules (id, name, conditions, priority, is_active, assign_to, assign_to_team)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		r.ID, r.Name, conditionsJSON, r.Priority, r.IsActive,
		nullIfEmpty(r.AssignTo), nullIfEmpty(r.AssignToTeam))
	if err := row.Scan(&r.CreatedAt); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM routing_rules WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete rule %s", id)
}

// --- Assignments ---

func (s *Store) CreateAssignment(ctx context.Context, a *review.Assignment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO review_assignments (id, review_id, reviewer_identifier, team_name, assigned_by_rule_id, assigned_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ReviewID, nullIfEmpty(a.ReviewerIdentifier), nullIfEmpty(a.TeamName),
		nullIfEmpty(a.AssignedByRuleID), a.AssignedAt)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

func (s *Store) ListAssignmentsForReview(ctx context.Context, reviewID string) ([]review.Assignment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, review_id, COALESCE(reviewer_identifier, ''), COALESCE(team_name, ''), COALESCE(assigned_by_rule_id, ''), assigned_at
		 FROM review_assignments WHERE review_id = $1 ORDER BY assigned_at ASC`, reviewID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []review.Assignment
	for rows.Next() {
		var a review.Assignment
		if err := rows.Scan(&a.ID, &a.ReviewID, &a.ReviewerIdentifier, &a.TeamName, &a.AssignedByRuleID, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// --- Scanners ---

func scanReview(row scannable) (review.Review, error) {
	var r review.Review
	var urgency, status string
	var metadataJSON []byte
	err := row.Scan(&r.ID, &r.TaskType, &r.ProposedAction, &r.AgentReasoning, &r.ConfidenceScore,
		&urgency, &r.Framework, &status, &metadataJSON, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.Urgency = review.Urgency(urgency)
	r.Status = review.Status(status)
	if metadataJSON != nil {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return r, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return r, nil
}

func scanRule(row scannable) (routing.Rule, error) {
	var r routing.Rule
	var conditionsJSON []byte
	err := row.Scan(&r.ID, &r.Name, &conditionsJSON, &r.Priority, &r.IsActive, &r.AssignTo, &r.AssignToTeam, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	if conditionsJSON != nil {
		if err := json.Unmarshal(conditionsJSON, &r.Conditions); err != nil {
			return r, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}
	return r, nil
}

func collectRules(rows interface {
	scannable
	Next() bool
	Err() error
}) ([]routing.Rule, error) {
	var rules []routing.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

package frameworks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain"
	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/port/database"
)

// awaitDecision polls the store until the review leaves the pending state and
// a decision is attached, then returns both. The loop suspends between polls
// and holds nothing across iterations, so concurrent waiters on the same
// review are safe and each observes the same eventual decision.
//
// A missing review id fails immediately with domain.ErrNotFound and is never
// retried; exhausting the budget fails with domain.ErrTimeout carrying the
// review id and timeout. Cancellation is owned by the caller's context.
func awaitDecision(
	ctx context.Context,
	store database.Store,
	reviewID string,
	timeout, pollInterval time.Duration,
) (*review.Review, *review.Decision, error) {
	deadline := time.Now().Add(timeout)

	for {
		r, err := store.GetReview(ctx, reviewID)
		if err != nil {
			return nil, nil, fmt.Errorf("get review %s: %w", reviewID, err)
		}

		if r.Status != review.StatusPending {
			d, err := store.GetDecisionForReview(ctx, reviewID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, nil, fmt.Errorf("get decision for review %s: %w", reviewID, err)
			}
			if d != nil {
				return r, d, nil
			}
			// Status flipped but the decision row is not visible yet; keep
			// polling until both are observable.
		}

		if time.Now().After(deadline) {
			return nil, nil, fmt.Errorf("%w: review %s after %s", domain.ErrTimeout, reviewID, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

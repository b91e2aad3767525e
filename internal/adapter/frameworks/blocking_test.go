package frameworks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain"
	"github.com/Strob0t/HumanCheck/internal/domain/review"
)

func pendingReview(id string) *review.Review {
	return &review.Review{
		ID:             id,
		TaskType:       "sql",
		ProposedAction: "DELETE FROM staging",
		Urgency:        review.UrgencyMedium,
		Framework:      "rest",
		Status:         review.StatusPending,
		CreatedAt:      time.Now(),
	}
}

func TestHandleBlockingUnknownReview(t *testing.T) {
	adapter := NewRest(newMockStore(), 0, 0)

	_, err := adapter.HandleBlocking(context.Background(), "missing", time.Second)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHandleBlockingTimesOut(t *testing.T) {
	store := newMockStore()
	if err := store.CreateReview(context.Background(), pendingReview("rev-1")); err != nil {
		t.Fatal(err)
	}
	adapter := NewRest(store, 0, 10*time.Millisecond)

	start := time.Now()
	_, err := adapter.HandleBlocking(context.Background(), "rev-1", 100*time.Millisecond)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "rev-1") {
		t.Errorf("timeout error should carry the review id: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait took %s, expected roughly the 100ms budget", elapsed)
	}
}

func TestHandleBlockingResolvesOnDecision(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	if err := store.CreateReview(ctx, pendingReview("rev-1")); err != nil {
		t.Fatal(err)
	}
	adapter := NewRest(store, 0, 10*time.Millisecond)

	// Insert the decision concurrently after a few poll intervals.
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = store.CreateDecision(ctx, &review.Decision{
			ID:           "dec-1",
			ReviewID:     "rev-1",
			DecisionType: review.DecisionApprove,
			Timestamp:    time.Now(),
		})
	}()

	resp, err := adapter.HandleBlocking(ctx, "rev-1", 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "completed" || resp["approved_action"] != "DELETE FROM staging" {
		t.Errorf("unexpected resolved response: %v", resp)
	}
}

func TestHandleBlockingConcurrentWaiters(t *testing.T) {
	store := newMockStore()
	ctx := context.Background()
	if err := store.CreateReview(ctx, pendingReview("rev-1")); err != nil {
		t.Fatal(err)
	}
	adapter := NewMCP(store, 0, 10*time.Millisecond)

	results := make(chan map[string]any, 2)
	errs := make(chan error, 2)
	for range 2 {
		go func() {
			resp, err := adapter.HandleBlocking(ctx, "rev-1", 2*time.Second)
			results <- resp
			errs <- err
		}()
	}

	time.Sleep(30 * time.Millisecond)
	if err := store.CreateDecision(ctx, &review.Decision{
		ID:           "dec-1",
		ReviewID:     "rev-1",
		DecisionType: review.DecisionReject,
		Notes:        "no",
		Timestamp:    time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	// Both waiters independently observe the same terminal decision.
	for range 2 {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
		resp := <-results
		if resp["result"] != "rejected" {
			t.Errorf("unexpected waiter response: %v", resp)
		}
	}
}

func TestHandleBlockingRespectsCancellation(t *testing.T) {
	store := newMockStore()
	if err := store.CreateReview(context.Background(), pendingReview("rev-1")); err != nil {
		t.Fatal(err)
	}
	adapter := NewWorkflow(store, 0, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := adapter.HandleBlocking(ctx, "rev-1", time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

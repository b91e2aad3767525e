// Package framework defines the adapter port for AI-framework integrations
// and the registry that selects the right adapter at runtime.
package framework

import (
	"context"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
)

// Adapter converts between one framework's native request/response shapes and
// the universal review record. Implementations exist per supported framework
// (rest, mcp, langchain, langchain_hitl, workflow).
//
// ToUniversal and FromUniversal are pure transformations; HandleBlocking is
// the only impure operation (store reads and sleeps between polls).
type Adapter interface {
	// Name returns the stable framework identifier used for registry lookup
	// and stamped onto the review's framework field.
	Name() string

	// ToUniversal converts a native request into universal review records.
	// Most frameworks produce exactly one; batched interrupts fan out into
	// one record per tool call. Malformed requests fail with a
	// domain.ErrValidation-wrapped error.
	ToUniversal(native map[string]any) ([]review.UniversalReview, error)

	// FromUniversal converts a universal review plus its decision back into
	// the framework's native response shape. A nil decision produces the
	// framework's "still pending" shape.
	FromUniversal(u review.UniversalReview, d *review.Decision) map[string]any

	// HandleBlocking waits for a decision on the given review and returns it
	// in the framework's native shape. A non-positive timeout selects the
	// adapter's default budget. Fails with domain.ErrNotFound for unknown ids
	// and domain.ErrTimeout when the budget is exhausted.
	HandleBlocking(ctx context.Context, reviewID string, timeout time.Duration) (map[string]any, error)

	// Validate checks a native request against the framework's schema,
	// failing with a domain.ErrValidation-wrapped error naming the first
	// violated constraint. Frameworks without a strict native schema accept
	// everything.
	Validate(native map[string]any) error
}

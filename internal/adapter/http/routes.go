package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Reviews
		r.Post("/reviews", h.SubmitReview)
		r.Get("/reviews", h.ListReviews)
		r.Get("/reviews/{id}", h.GetReview)
		r.Get("/reviews/{id}/wait", h.WaitReview)
		r.Post("/reviews/{id}/decision", h.DecideReview)
		r.Get("/reviews/{id}/assignments", h.ListAssignments)

		// Framework adapters
		r.Get("/frameworks", h.ListFrameworks)

		// Routing rules
		r.Get("/rules", h.ListRules)
		r.Post("/rules", h.CreateRule)
		r.Delete("/rules/{id}", h.DeleteRule)
	})
}

package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Strob0t/HumanCheck/internal/domain/review"
	"github.com/Strob0t/HumanCheck/internal/domain/routing"
	"github.com/Strob0t/HumanCheck/internal/service"
)

// maxBodyBytes caps request bodies; review payloads are small JSON documents.
const maxBodyBytes = 1 << 20

// Handlers carries the service dependencies for all HTTP endpoints.
type Handlers struct {
	reviews *service.ReviewService
	router  *service.RouterService
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(reviews *service.ReviewService, router *service.RouterService) *Handlers {
	return &Handlers{reviews: reviews, router: router}
}

// SubmitReview accepts a framework-native payload and creates one review per
// extracted record. The framework is selected by the ?framework query
// parameter, defaulting to "rest". With ?wait=true the request long-polls
// until the (single) review is decided and returns the adapter's native
// decision response instead of the pending one.
func (h *Handlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	native, ok := readJSON[map[string]any](w, r, maxBodyBytes)
	if !ok {
		return
	}

	frameworkName := r.URL.Query().Get("framework")
	if frameworkName == "" {
		frameworkName = "rest"
	}

	results, err := h.reviews.Submit(r.Context(), frameworkName, native)
	if err != nil {
		writeDomainError(w, err, "review not created")
		return
	}

	if r.URL.Query().Get("wait") == "true" && len(results) == 1 {
		timeout, ok := parseTimeout(w, r)
		if !ok {
			return
		}
		resp, err := h.reviews.Await(r.Context(), results[0].Review.ID, timeout)
		if err != nil {
			writeDomainError(w, err, "review not found")
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"results": results})
}

// ListReviews returns reviews, optionally filtered by ?status= and capped by
// ?limit=.
func (h *Handlers) ListReviews(w http.ResponseWriter, r *http.Request) {
	status := review.Status(r.URL.Query().Get("status"))
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reviews, err := h.reviews.List(r.Context(), status, limit)
	if err != nil {
		writeDomainError(w, err, "reviews not listed")
		return
	}
	if reviews == nil {
		reviews = []review.Review{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// GetReview returns a review and its decision, if any.
func (h *Handlers) GetReview(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	rev, decision, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": rev, "decision": decision})
}

// WaitReview long-polls until the review is decided, then returns the
// originating adapter's native decision response. The wait budget comes from
// ?timeout= (a Go duration); without it the adapter default applies.
func (h *Handlers) WaitReview(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	timeout, ok := parseTimeout(w, r)
	if !ok {
		return
	}

	resp, err := h.reviews.Await(r.Context(), id, timeout)
	if err != nil {
		writeDomainError(w, err, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// DecideReview records the human verdict on a review.
func (h *Handlers) DecideReview(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[review.DecideRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	d, err := h.reviews.Decide(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err, "review not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"decision": d})
}

// ListAssignments returns the routing assignments for a review.
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	assignments, err := h.reviews.Assignments(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "assignments not listed")
		return
	}
	if assignments == nil {
		assignments = []review.Assignment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

// ListFrameworks returns the registered framework adapter names.
func (h *Handlers) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"frameworks": h.reviews.Frameworks()})
}

// ListRules returns all routing rules.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.router.ListRules(r.Context())
	if err != nil {
		writeDomainError(w, err, "rules not listed")
		return
	}
	if rules == nil {
		rules = []routing.Rule{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": rules})
}

// CreateRule creates a routing rule.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[routing.CreateRuleRequest](w, r, maxBodyBytes)
	if !ok {
		return
	}

	rule, err := h.router.CreateRule(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "rule not created")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"rule": rule})
}

// DeleteRule removes a routing rule.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	if err := h.router.DeleteRule(r.Context(), id); err != nil {
		writeDomainError(w, err, "rule not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseTimeout reads the optional ?timeout= query parameter. Zero means the
// adapter default.
func parseTimeout(w http.ResponseWriter, r *http.Request) (time.Duration, bool) {
	s := r.URL.Query().Get("timeout")
	if s == "" {
		return 0, true
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		writeError(w, http.StatusBadRequest, "timeout must be a positive duration, e.g. 30s")
		return 0, false
	}
	return d, true
}

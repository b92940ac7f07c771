package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// tourIDParam names the path parameter of reviews nested under a tour.
const tourIDParam = "tourId"

// ReviewHandler handles review requests, both top-level and nested under
// /tours/{tourId}/reviews.
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *slog.Logger

	list, get, create, update, remove http.HandlerFunc
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews service.ReviewService, queryOpts query.Options, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	h := &ReviewHandler{
		reviews: reviews,
		logger:  logger.With(slog.String("component", "review_handler")),
	}

	var coll Collection[domain.Review, domain.ReviewInput, domain.ReviewPatch] = reviews
	guard := WithGuard(h.authorize)
	h.list = ListAll(coll, WithScope(scopeToTour), WithQueryOptions(queryOpts))
	h.get = GetOne(coll)
	h.create = Create(coll, WithCreateHook(injectReviewRefs))
	h.update = Update(coll, guard)
	h.remove = Delete(coll, guard)
	return h
}

// ListReviews handles GET /reviews and GET /tours/{tourId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) { h.list(w, r) }

// GetReview handles GET /reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) { h.get(w, r) }

// CreateReview handles POST /reviews and POST /tours/{tourId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) { h.create(w, r) }

// UpdateReview handles PATCH /reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) { h.update(w, r) }

// DeleteReview handles DELETE /reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) { h.remove(w, r) }

// authorize lets admins modify any review and everyone else only their own.
func (h *ReviewHandler) authorize(r *http.Request, id uuid.UUID) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	return h.reviews.Authorize(r.Context(), id, actor)
}

// scopeToTour restricts nested listings to the tour in the path.
func scopeToTour(r *http.Request, spec query.Spec) (query.Spec, error) {
	tourID, ok, err := getOptionalPathUUID(r, tourIDParam)
	if err != nil || !ok {
		return spec, err
	}
	return spec.Where("tour", query.OpEq, tourID), nil
}

// injectReviewRefs makes the caller the author and, on nested routes, the
// path tour the reviewed tour. Client supplied values are overwritten.
func injectReviewRefs(r *http.Request, in *domain.ReviewInput) error {
	actor, err := identity(r)
	if err != nil {
		return err
	}
	in.User = actor.ID

	tourID, ok, err := getOptionalPathUUID(r, tourIDParam)
	if err != nil {
		return err
	}
	if ok {
		in.Tour = tourID
	}
	return nil
}

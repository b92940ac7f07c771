package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/mocks"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// reviewRouter mounts the review handler both top-level and nested, with
// actor injected as the authenticated identity.
func reviewRouter(t *testing.T, reviews *mocks.MockReviewService, actor *domain.User) http.Handler {
	t.Helper()
	log, _ := logger.NewTestLogger()
	h := NewReviewHandler(reviews, query.Options{}, log)

	routes := func(r chi.Router) {
		r.Get("/", h.ListReviews)
		r.Post("/", h.CreateReview)
		r.Get("/{id}", h.GetReview)
		r.Patch("/{id}", h.UpdateReview)
		r.Delete("/{id}", h.DeleteReview)
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if actor != nil {
				req = req.WithContext(shared.WithIdentity(req.Context(), actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/reviews", routes)
	r.Route("/tours/{tourId}/reviews", routes)
	return r
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestReviewHandler_ListScopesNestedRoute(t *testing.T) {
	tourID := uuid.New()
	var specs []query.Spec
	reviews := &mocks.MockReviewService{FindFn: func(_ context.Context, spec query.Spec) ([]*domain.Review, error) {
		specs = append(specs, spec)
		return []*domain.Review{{ID: uuid.New(), TourID: tourID, Rating: 5}}, nil
	}}
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	router := reviewRouter(t, reviews, actor)

	rr := doRequest(router, http.MethodGet, "/tours/"+tourID.String()+"/reviews", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(router, http.MethodGet, "/reviews", "")
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, specs, 2)
	nested := specs[0].Conditions()
	require.Len(t, nested, 1)
	assert.Equal(t, "tour", nested[0].Field)
	assert.Equal(t, tourID, nested[0].Value)
	assert.Empty(t, specs[1].Conditions())

	rr = doRequest(router, http.MethodGet, "/tours/not-a-uuid/reviews", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid tourId: not-a-uuid.", decodeBody(t, rr)["message"])
}

func TestReviewHandler_CreateInjectsIdentityAndTour(t *testing.T) {
	tourID := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	var got *domain.ReviewInput
	reviews := &mocks.MockReviewService{CreateFn: func(_ context.Context, in *domain.ReviewInput) (*domain.Review, error) {
		got = in
		return &domain.Review{ID: uuid.New(), Review: in.Review, Rating: in.Rating, TourID: in.Tour, UserID: in.User}, nil
	}}
	router := reviewRouter(t, reviews, actor)

	spoofed := uuid.New()
	rr := doRequest(router, http.MethodPost, "/tours/"+tourID.String()+"/reviews",
		`{"review":"Amazing!","rating":5,"user":"`+spoofed.String()+`","tour":"`+uuid.NewString()+`"}`)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, actor.ID, got.User, "author is always the caller")
	assert.Equal(t, tourID, got.Tour, "nested route fixes the tour")
}

func TestReviewHandler_CreateTopLevelKeepsBodyTour(t *testing.T) {
	tourID := uuid.New()
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	var got *domain.ReviewInput
	reviews := &mocks.MockReviewService{CreateFn: func(_ context.Context, in *domain.ReviewInput) (*domain.Review, error) {
		got = in
		return &domain.Review{ID: uuid.New()}, nil
	}}

	rr := doRequest(reviewRouter(t, reviews, actor), http.MethodPost, "/reviews",
		`{"review":"Fine","rating":3,"tour":"`+tourID.String()+`"}`)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, tourID, got.Tour)
	assert.Equal(t, actor.ID, got.User)
}

func TestReviewHandler_CreateInvalidRating(t *testing.T) {
	actor := &domain.User{ID: uuid.New(), Role: domain.RoleUser}

	rr := doRequest(reviewRouter(t, &mocks.MockReviewService{}, actor), http.MethodPost, "/reviews",
		`{"review":"Too good","rating":6,"tour":"`+uuid.NewString()+`"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid input data. rating: must be at most 5.", decodeBody(t, rr)["message"])
}

func TestReviewHandler_GuardedMutations(t *testing.T) {
	owner := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	other := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	reviewID := uuid.New()

	authorize := func(_ context.Context, id uuid.UUID, actor *domain.User) error {
		assert.Equal(t, reviewID, id)
		if actor.ID != owner.ID && actor.Role != domain.RoleAdmin {
			return service.ErrForbidden
		}
		return nil
	}

	tests := []struct {
		name           string
		actor          *domain.User
		method         string
		body           string
		expectedStatus int
	}{
		{"owner updates", owner, http.MethodPatch, `{"rating":4}`, http.StatusOK},
		{"other user updates", other, http.MethodPatch, `{"rating":4}`, http.StatusForbidden},
		{"owner deletes", owner, http.MethodDelete, "", http.StatusNoContent},
		{"other user deletes", other, http.MethodDelete, "", http.StatusForbidden},
		{"anonymous deletes", nil, http.MethodDelete, "", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reviews := &mocks.MockReviewService{
				AuthorizeFn: authorize,
				UpdateFn: func(_ context.Context, id uuid.UUID, in *domain.ReviewPatch) (*domain.Review, error) {
					return &domain.Review{ID: id, Rating: *in.Rating}, nil
				},
			}

			rr := doRequest(reviewRouter(t, reviews, tc.actor), tc.method, "/reviews/"+reviewID.String(), tc.body)

			assert.Equal(t, tc.expectedStatus, rr.Code, rr.Body.String())
			if tc.expectedStatus >= http.StatusBadRequest {
				assert.Zero(t, reviews.UpdateCount+reviews.DeleteCount, "service must not be called")
			}
		})
	}
}

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/tourbook-api/internal/api/shared"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/service"
)

// Query rewritten by AliasTopTours.
const (
	topToursLimit  = "5"
	topToursSort   = "-ratingsAverage,price"
	topToursFields = "name,price,ratingsAverage,summary,difficulty"
)

// TourHandler handles tour-related HTTP requests
type TourHandler struct {
	tours  service.TourService
	logger *slog.Logger

	list, get, create, update, remove http.HandlerFunc
}

// NewTourHandler creates a new TourHandler
func NewTourHandler(tours service.TourService, queryOpts query.Options, logger *slog.Logger) *TourHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TourHandler")
	}

	var coll Collection[domain.Tour, domain.TourInput, domain.TourPatch] = tours
	return &TourHandler{
		tours:  tours,
		logger: logger.With(slog.String("component", "tour_handler")),
		list:   ListAll(coll, WithQueryOptions(queryOpts)),
		get:    GetOne(coll, WithExpand(service.ExpandReviews, service.ExpandGuides)),
		create: Create(coll),
		update: Update(coll),
		remove: Delete(coll),
	}
}

// ListTours handles GET /tours
func (h *TourHandler) ListTours(w http.ResponseWriter, r *http.Request) { h.list(w, r) }

// GetTour handles GET /tours/{id} with reviews and guides expanded.
func (h *TourHandler) GetTour(w http.ResponseWriter, r *http.Request) { h.get(w, r) }

// CreateTour handles POST /tours
func (h *TourHandler) CreateTour(w http.ResponseWriter, r *http.Request) { h.create(w, r) }

// UpdateTour handles PATCH /tours/{id}
func (h *TourHandler) UpdateTour(w http.ResponseWriter, r *http.Request) { h.update(w, r) }

// DeleteTour handles DELETE /tours/{id}
func (h *TourHandler) DeleteTour(w http.ResponseWriter, r *http.Request) { h.remove(w, r) }

// AliasTopTours rewrites the query to the five best rated, cheapest tours.
func AliasTopTours(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("limit", topToursLimit)
		q.Set("sort", topToursSort)
		q.Set("fields", topToursFields)

		aliased := r.Clone(r.Context())
		aliased.URL.RawQuery = q.Encode()
		next.ServeHTTP(w, aliased)
	})
}

// TourStats handles GET /tours/tour-stats
func (h *TourHandler) TourStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tours.Stats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "stats", stats)
}

// MonthlyPlan handles GET /tours/monthly-plan/{year}
func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := getPathInt(r, "year")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	plan, err := h.tours.MonthlyPlan(r.Context(), year)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "plan", plan)
}

// ToursWithin handles GET /tours/tours-within/{distance}/center/{latlng}/unit/{unit}
func (h *TourHandler) ToursWithin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	distance, err := getPathFloat(r, "distance")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	center, err := domain.ParseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	unit, err := getPathUnit(r, "unit")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	log.Debug("searching tours within distance",
		slog.Float64("distance", distance),
		slog.String("unit", string(unit)))

	tours, err := h.tours.Within(r.Context(), distance, center, unit)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	items := make([]any, 0, len(tours))
	for _, t := range tours {
		items = append(items, t)
	}
	shared.RespondList(w, r, items)
}

// Distances handles GET /tours/distances/{latlng}/unit/{unit}
func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	center, err := domain.ParseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	unit, err := getPathUnit(r, "unit")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	distances, err := h.tours.Distances(r.Context(), center, unit)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondSuccess(w, r, http.StatusOK, "data", distances)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// Relations a tour read can expand.
const (
	ExpandReviews = "reviews"
	ExpandGuides  = "guides"
)

// reviewsPerTour caps the reviews embedded in an expanded tour.
const reviewsPerTour = 1000

// TourService provides tour CRUD and the tour aggregations.
type TourService interface {
	// Find lists tours matching spec. Unknown fields in spec are ignored.
	Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error)

	// Get retrieves a tour, optionally expanding ExpandReviews and ExpandGuides.
	Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Tour, error)

	// Create validates and stores a new tour with default ratings.
	Create(ctx context.Context, in *domain.TourInput) (*domain.Tour, error)

	// Update applies a partial update and re-validates the tour.
	Update(ctx context.Context, id uuid.UUID, in *domain.TourPatch) (*domain.Tour, error)

	// Delete removes a tour and its reviews.
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats groups highly rated tours by difficulty.
	Stats(ctx context.Context) ([]domain.TourStats, error)

	// MonthlyPlan counts tour starts per month of year.
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error)

	// Within lists tours starting within distance of center.
	Within(ctx context.Context, distance float64, center domain.GeoPoint, unit domain.DistanceUnit) ([]*domain.Tour, error)

	// Distances lists every located tour's distance from center, nearest first.
	Distances(ctx context.Context, center domain.GeoPoint, unit domain.DistanceUnit) ([]domain.TourDistance, error)
}

type tourServiceImpl struct {
	tours   store.TourStore
	reviews store.ReviewStore
	users   store.UserStore
	tx      store.Transactor
	logger  *slog.Logger
}

// NewTourService creates a TourService. A nil tx runs updates without a
// transaction.
func NewTourService(
	tours store.TourStore,
	reviews store.ReviewStore,
	users store.UserStore,
	tx store.Transactor,
	logger *slog.Logger,
) (TourService, error) {
	if tours == nil {
		return nil, domain.NewValidationError("tours", "cannot be nil", domain.ErrValidation)
	}
	if reviews == nil {
		return nil, domain.NewValidationError("reviews", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		tx = store.NoTx
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &tourServiceImpl{
		tours:   tours,
		reviews: reviews,
		users:   users,
		tx:      tx,
		logger:  logger.With(slog.String("component", "tour_service")),
	}, nil
}

// Find implements TourService.Find
func (s *tourServiceImpl) Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error) {
	resolved, err := store.TourSchema.Resolve(spec)
	if err != nil {
		return nil, err
	}

	tours, err := s.tours.Find(ctx, resolved)
	if err != nil {
		return nil, newServiceError("tour", "find", err)
	}
	return tours, nil
}

// Get implements TourService.Get
func (s *tourServiceImpl) Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Tour, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrTourNotFound) {
			log.Error("failed to retrieve tour", "error", err, "tour_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve tour: %w", err)
	}

	if slices.Contains(expand, ExpandGuides) && len(tour.Guides) > 0 {
		guides, err := s.users.Summaries(ctx, tour.Guides)
		if err != nil {
			return nil, newServiceError("tour", "expand guides", err)
		}
		tour.GuideDetails = guides
	}

	if slices.Contains(expand, ExpandReviews) {
		spec := query.New(query.Options{DefaultLimit: reviewsPerTour}).
			Where("tour", query.OpEq, tour.ID)
		reviews, err := s.reviews.Find(ctx, spec)
		if err != nil {
			return nil, newServiceError("tour", "expand reviews", err)
		}
		tour.Reviews = reviews
	}

	return tour, nil
}

// Create implements TourService.Create
func (s *tourServiceImpl) Create(ctx context.Context, in *domain.TourInput) (*domain.Tour, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tour, err := domain.NewTour(in)
	if err != nil {
		return nil, err
	}

	if err := s.tours.Create(ctx, tour); err != nil {
		if !errors.Is(err, store.ErrTourNameExists) {
			log.Error("failed to create tour", "error", err, "name", tour.Name)
		}
		return nil, fmt.Errorf("failed to create tour: %w", err)
	}

	log.Info("tour created", "tour_id", tour.ID, "name", tour.Name)
	return tour, nil
}

// Update implements TourService.Update
// The read, apply and write run in one transaction.
func (s *tourServiceImpl) Update(ctx context.Context, id uuid.UUID, in *domain.TourPatch) (*domain.Tour, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Tour
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		tour, err := s.tours.GetByID(ctx, id)
		if err != nil {
			return err
		}

		in.Apply(tour)
		if err := tour.Validate(); err != nil {
			return err
		}

		if err := s.tours.Update(ctx, tour); err != nil {
			return err
		}
		updated = tour
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update tour", "error", err, "tour_id", id)
		}
		return nil, fmt.Errorf("failed to update tour: %w", err)
	}

	log.Info("tour updated", "tour_id", id)
	return updated, nil
}

// Delete implements TourService.Delete
func (s *tourServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.tours.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrTourNotFound) {
			log.Error("failed to delete tour", "error", err, "tour_id", id)
		}
		return fmt.Errorf("failed to delete tour: %w", err)
	}

	log.Info("tour deleted", "tour_id", id)
	return nil
}

// Stats implements TourService.Stats
func (s *tourServiceImpl) Stats(ctx context.Context) ([]domain.TourStats, error) {
	stats, err := s.tours.Stats(ctx, domain.StatsMinRating)
	if err != nil {
		return nil, newServiceError("tour", "stats", err)
	}
	return stats, nil
}

// MonthlyPlan implements TourService.MonthlyPlan
func (s *tourServiceImpl) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	if year < 1 || year > 9999 {
		return nil, domain.NewValidationError("year", fmt.Sprintf("Invalid year: %d.", year), nil)
	}

	plan, err := s.tours.MonthlyPlan(ctx, year)
	if err != nil {
		return nil, newServiceError("tour", "monthly plan", err)
	}
	return plan, nil
}

// Within implements TourService.Within
func (s *tourServiceImpl) Within(
	ctx context.Context,
	distance float64,
	center domain.GeoPoint,
	unit domain.DistanceUnit,
) ([]*domain.Tour, error) {
	if distance <= 0 || math.IsNaN(distance) || math.IsInf(distance, 0) {
		return nil, domain.NewValidationError("distance", "Please provide a positive distance.", domain.ErrInvalidLocation)
	}

	tours, err := s.tours.Within(ctx, center, unit.RadiusRadians(distance))
	if err != nil {
		return nil, newServiceError("tour", "within", err)
	}
	return tours, nil
}

// Distances implements TourService.Distances
func (s *tourServiceImpl) Distances(
	ctx context.Context,
	center domain.GeoPoint,
	unit domain.DistanceUnit,
) ([]domain.TourDistance, error) {
	distances, err := s.tours.Distances(ctx, center, unit.Multiplier())
	if err != nil {
		return nil, newServiceError("tour", "distances", err)
	}
	return distances, nil
}

// isExpected reports whether err is a client-caused failure not worth an
// error-level log line.
func isExpected(err error) bool {
	return errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, store.ErrReferenceNotFound) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, ErrForbidden)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/events"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// ReviewService provides review CRUD. Each mutation recomputes the owning
// tour's ratingsAverage and ratingsQuantity before its transaction commits.
type ReviewService interface {
	Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error)
	Get(ctx context.Context, id uuid.UUID, expand ...string) (*domain.Review, error)
	Create(ctx context.Context, in *domain.ReviewInput) (*domain.Review, error)
	Update(ctx context.Context, id uuid.UUID, in *domain.ReviewPatch) (*domain.Review, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Authorize returns ErrForbidden unless actor may modify the review.
	// Admins may modify any review; everyone else only their own.
	Authorize(ctx context.Context, id uuid.UUID, actor *domain.User) error
}

type reviewServiceImpl struct {
	reviews store.ReviewStore
	tx      store.Transactor
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewReviewService creates a ReviewService. A nil tx runs each mutation
// without a transaction; a nil emitter disables review.changed events.
func NewReviewService(
	reviews store.ReviewStore,
	tx store.Transactor,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (ReviewService, error) {
	if reviews == nil {
		return nil, domain.NewValidationError("reviews", "cannot be nil", domain.ErrValidation)
	}
	if tx == nil {
		tx = store.NoTx
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		reviews: reviews,
		tx:      tx,
		emitter: emitter,
		logger:  logger.With(slog.String("component", "review_service")),
	}, nil
}

// Find implements ReviewService.Find
func (s *reviewServiceImpl) Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error) {
	resolved, err := store.ReviewSchema.Resolve(spec)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.Find(ctx, resolved)
	if err != nil {
		return nil, newServiceError("review", "find", err)
	}
	return reviews, nil
}

// Get implements ReviewService.Get. Reviews have no expandable relations.
func (s *reviewServiceImpl) Get(ctx context.Context, id uuid.UUID, _ ...string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrReviewNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve review",
				"error", err,
				"review_id", id)
		}
		return nil, fmt.Errorf("failed to retrieve review: %w", err)
	}
	return review, nil
}

// Create implements ReviewService.Create
func (s *reviewServiceImpl) Create(ctx context.Context, in *domain.ReviewInput) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	review, err := domain.NewReview(in)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}
		return s.recompute(ctx, review.TourID)
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to create review",
				"error", err,
				"tour_id", review.TourID,
				"user_id", review.UserID)
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	log.Info("review created",
		"review_id", review.ID,
		"tour_id", review.TourID,
		"user_id", review.UserID)
	s.emitChanged(ctx, review, events.ActionCreated)
	return review, nil
}

// Update implements ReviewService.Update
func (s *reviewServiceImpl) Update(ctx context.Context, id uuid.UUID, in *domain.ReviewPatch) (*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Review
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		review, err := s.reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}

		in.Apply(review)
		if err := review.Validate(); err != nil {
			return err
		}

		if err := s.reviews.Update(ctx, review); err != nil {
			return err
		}
		if err := s.recompute(ctx, review.TourID); err != nil {
			return err
		}
		updated = review
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to update review", "error", err, "review_id", id)
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	log.Info("review updated", "review_id", id, "tour_id", updated.TourID)
	s.emitChanged(ctx, updated, events.ActionUpdated)
	return updated, nil
}

// Delete implements ReviewService.Delete
func (s *reviewServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted *domain.Review
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		review, err := s.reviews.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.reviews.Delete(ctx, id); err != nil {
			return err
		}
		if err := s.recompute(ctx, review.TourID); err != nil {
			return err
		}
		deleted = review
		return nil
	})
	if err != nil {
		if !isExpected(err) {
			log.Error("failed to delete review", "error", err, "review_id", id)
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}

	log.Info("review deleted", "review_id", id, "tour_id", deleted.TourID)
	s.emitChanged(ctx, deleted, events.ActionDeleted)
	return nil
}

// Authorize implements ReviewService.Authorize
func (s *reviewServiceImpl) Authorize(ctx context.Context, id uuid.UUID, actor *domain.User) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.HasRole(domain.RoleAdmin) {
		return nil
	}

	review, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID {
		logger.FromContextOrDefault(ctx, s.logger).Debug("review owned by another user",
			"review_id", id,
			"owner_id", review.UserID,
			"actor_id", actor.ID)
		return ErrForbidden
	}
	return nil
}

func (s *reviewServiceImpl) recompute(ctx context.Context, tourID uuid.UUID) error {
	stats, err := s.reviews.RecomputeTourRating(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to recompute tour rating: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("tour rating recomputed",
		"tour_id", tourID,
		"quantity", stats.Quantity,
		"average", stats.Average)
	return nil
}

// emitChanged publishes review.changed after a committed mutation.
// Failures are logged, never returned.
func (s *reviewServiceImpl) emitChanged(ctx context.Context, review *domain.Review, action string) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(events.ReviewChanged, events.ReviewChangedPayload{
		TourID:   review.TourID,
		ReviewID: review.ID,
		Action:   action,
	})
	if err != nil {
		log.Error("failed to build review event", "error", err, "review_id", review.ID)
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit review event",
			"error", err,
			"review_id", review.ID,
			"tour_id", review.TourID)
	}
}

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// RatingRecomputer is the slice of store.ReviewStore the reconcile task needs.
type RatingRecomputer interface {
	RecomputeTourRating(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error)
}

// TourRatingReconcileTask recomputes a tour's rating outside any request.
// It repairs ratings left stale by concurrent review writers.
type TourRatingReconcileTask struct {
	id      uuid.UUID
	tourID  uuid.UUID
	ratings RatingRecomputer
	tx      store.Transactor
	logger  *slog.Logger
}

// ID implements Task.
func (t *TourRatingReconcileTask) ID() uuid.UUID { return t.id }

// Type implements Task.
func (t *TourRatingReconcileTask) Type() string { return TaskTypeTourRatingReconcile }

// Key implements Keyed. One pending recompute per tour is enough.
func (t *TourRatingReconcileTask) Key() string { return TaskTypeTourRatingReconcile + ":" + t.tourID.String() }

// TourID returns the tour being reconciled.
func (t *TourRatingReconcileTask) TourID() uuid.UUID { return t.tourID }

// Execute implements Task. A tour deleted in the meantime is not an error.
func (t *TourRatingReconcileTask) Execute(ctx context.Context) error {
	var stats domain.RatingStats
	err := t.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		stats, err = t.ratings.RecomputeTourRating(ctx, t.tourID)
		return err
	})
	if errors.Is(err, store.ErrTourNotFound) {
		t.logger.Debug("tour gone before reconcile", "tour_id", t.tourID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reconcile rating of tour %s: %w", t.tourID, err)
	}

	t.logger.Debug("tour rating reconciled",
		"tour_id", t.tourID,
		"quantity", stats.Quantity,
		"average", stats.Average)
	return nil
}

// TourRatingTaskFactory builds reconcile tasks bound to a store.
type TourRatingTaskFactory struct {
	ratings RatingRecomputer
	tx      store.Transactor
	logger  *slog.Logger
}

// NewTourRatingTaskFactory creates a factory. A nil tx runs tasks without
// a transaction.
func NewTourRatingTaskFactory(ratings RatingRecomputer, tx store.Transactor, logger *slog.Logger) *TourRatingTaskFactory {
	if tx == nil {
		tx = store.NoTx
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TourRatingTaskFactory{
		ratings: ratings,
		tx:      tx,
		logger:  logger.With("component", "tour_rating_task"),
	}
}

// CreateTask returns a reconcile task for tourID.
func (f *TourRatingTaskFactory) CreateTask(tourID uuid.UUID) *TourRatingReconcileTask {
	return &TourRatingReconcileTask{
		id:      uuid.New(),
		tourID:  tourID,
		ratings: f.ratings,
		tx:      f.tx,
		logger:  f.logger,
	}
}

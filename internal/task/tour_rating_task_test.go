package task

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recomputerFunc func(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error)

func (f recomputerFunc) RecomputeTourRating(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error) {
	return f(ctx, tourID)
}

func TestTourRatingReconcileTask(t *testing.T) {
	tourID := uuid.New()

	t.Run("recomputes inside a transaction", func(t *testing.T) {
		var inTx, called bool
		tx := store.TransactorFunc(func(ctx context.Context, fn store.TxFn) error {
			inTx = true
			return fn(ctx)
		})
		ratings := recomputerFunc(func(ctx context.Context, id uuid.UUID) (domain.RatingStats, error) {
			called = true
			assert.Equal(t, tourID, id)
			return domain.NewRatingStats(id, 3, 4.0), nil
		})

		task := NewTourRatingTaskFactory(ratings, tx, setupTestLogger()).CreateTask(tourID)

		require.NoError(t, task.Execute(context.Background()))
		assert.True(t, inTx)
		assert.True(t, called)
		assert.Equal(t, TaskTypeTourRatingReconcile, task.Type())
		assert.Equal(t, tourID, task.TourID())
		assert.NotEqual(t, uuid.Nil, task.ID())
	})

	t.Run("tasks for one tour share a key", func(t *testing.T) {
		factory := NewTourRatingTaskFactory(nil, nil, nil)
		a, b := factory.CreateTask(tourID), factory.CreateTask(tourID)

		assert.NotEqual(t, a.ID(), b.ID())
		assert.Equal(t, a.Key(), b.Key())
		assert.NotEqual(t, a.Key(), factory.CreateTask(uuid.New()).Key())
		var _ Keyed = a
	})

	t.Run("deleted tour is not an error", func(t *testing.T) {
		ratings := recomputerFunc(func(ctx context.Context, id uuid.UUID) (domain.RatingStats, error) {
			return domain.RatingStats{}, store.ErrTourNotFound
		})

		task := NewTourRatingTaskFactory(ratings, nil, nil).CreateTask(tourID)

		assert.NoError(t, task.Execute(context.Background()))
	})

	t.Run("store failure is reported", func(t *testing.T) {
		boom := errors.New("connection reset")
		ratings := recomputerFunc(func(ctx context.Context, id uuid.UUID) (domain.RatingStats, error) {
			return domain.RatingStats{}, boom
		})

		task := NewTourRatingTaskFactory(ratings, store.NoTx, nil).CreateTask(tourID)

		err := task.Execute(context.Background())
		assert.ErrorIs(t, err, boom)
	})
}

//go:build integration

package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connect opens a throwaway database on TOURBOOK_TEST_MONGO_URL.
func connect(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("TOURBOOK_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TOURBOOK_TEST_MONGO_URL not set")
	}
	ctx := context.Background()
	log, _ := logger.NewTestLogger()

	c, err := Connect(ctx, uri, "tourbook_test_"+uuid.NewString()[:8], false, log)
	require.NoError(t, err)
	require.NoError(t, c.EnsureIndexes(ctx))
	t.Cleanup(func() {
		_ = c.Database().Drop(context.Background())
		_ = c.Close(context.Background())
	})
	return c
}

func newTour(t *testing.T, name string, price float64, lat, lng float64) *domain.Tour {
	t.Helper()
	loc := domain.NewGeoPoint(lat, lng)
	tour, err := domain.NewTour(&domain.TourInput{
		Name:          name,
		Duration:      5,
		MaxGroupSize:  10,
		Difficulty:    domain.DifficultyEasy,
		Price:         price,
		Summary:       "A test tour",
		StartDates:    []time.Time{time.Date(2021, 4, 25, 9, 0, 0, 0, time.UTC)},
		StartLocation: &loc,
	})
	require.NoError(t, err)
	return tour
}

func newUser(email string) *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Test User",
		Email:          email,
		Photo:          domain.DefaultPhoto,
		Role:           domain.RoleUser,
		HashedPassword: "$2a$10$hash",
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestStoresIntegration(t *testing.T) {
	c := connect(t)
	ctx := context.Background()
	tours := NewMongoTourStore(c, nil)
	users := NewMongoUserStore(c, nil)
	reviews := NewMongoReviewStore(c, tours, nil)

	near := newTour(t, "The Forest Hiker Tour", 397, 51.417611, -116.214531)
	far := newTour(t, "The Sea Explorer Tour", 497, 25.781842, -80.128473)
	require.NoError(t, tours.Create(ctx, near))
	require.NoError(t, tours.Create(ctx, far))

	dup := newTour(t, "The Forest Hiker Tour", 100, 0, 0)
	assert.ErrorIs(t, tours.Create(ctx, dup), store.ErrTourNameExists)

	t.Run("find with filter and sort", func(t *testing.T) {
		spec, err := store.TourSchema.Resolve(query.New(query.Options{}).
			Where("price", query.OpGte, 400.0).
			OrderBy(query.SortKey{Field: "price"}))
		require.NoError(t, err)

		found, err := tours.Find(ctx, spec)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, far.ID, found[0].ID)
	})

	t.Run("distances nearest first", func(t *testing.T) {
		center := domain.NewGeoPoint(51.0, -116.0)
		out, err := tours.Distances(ctx, center, domain.MetersToKm)
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, near.ID, out[0].ID)
	})

	t.Run("within radius", func(t *testing.T) {
		center := domain.NewGeoPoint(51.0, -116.0)
		found, err := tours.Within(ctx, center, domain.UnitKilometers.RadiusRadians(200))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, near.ID, found[0].ID)
	})

	t.Run("reviews drive ratings", func(t *testing.T) {
		alice := newUser("alice@example.com")
		bob := newUser("bob@example.com")
		require.NoError(t, users.Create(ctx, alice))
		require.NoError(t, users.Create(ctx, bob))
		assert.ErrorIs(t, users.Create(ctx, newUser("alice@example.com")), store.ErrEmailExists)

		for _, r := range []struct {
			user   *domain.User
			rating int
		}{{alice, 4}, {bob, 5}} {
			review, err := domain.NewReview(&domain.ReviewInput{
				Review: "Nice", Rating: r.rating, Tour: near.ID, User: r.user.ID,
			})
			require.NoError(t, err)
			require.NoError(t, reviews.Create(ctx, review))
		}

		stats, err := reviews.RecomputeTourRating(ctx, near.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Quantity)
		assert.Equal(t, 4.5, stats.Average)

		again, err := domain.NewReview(&domain.ReviewInput{Review: "Again", Rating: 1, Tour: near.ID, User: alice.ID})
		require.NoError(t, err)
		assert.ErrorIs(t, reviews.Create(ctx, again), store.ErrReviewExists)

		ghost, err := domain.NewReview(&domain.ReviewInput{Review: "Ghost", Rating: 3, Tour: uuid.New(), User: alice.ID})
		require.NoError(t, err)
		assert.ErrorIs(t, reviews.Create(ctx, ghost), store.ErrReferenceNotFound)

		listed, err := reviews.Find(ctx, query.New(query.Options{}).Where("tour", query.OpEq, near.ID))
		require.NoError(t, err)
		require.Len(t, listed, 2)
		require.NotNil(t, listed[0].Author)
		assert.Equal(t, "Test User", listed[0].Author.Name)
	})

	t.Run("stats and monthly plan", func(t *testing.T) {
		stats, err := tours.Stats(ctx, 0)
		require.NoError(t, err)
		require.Len(t, stats, 1)
		assert.Equal(t, "EASY", stats[0].Difficulty)
		assert.Equal(t, 2, stats[0].NumTours)

		plan, err := tours.MonthlyPlan(ctx, 2021)
		require.NoError(t, err)
		require.Len(t, plan, 1)
		assert.Equal(t, 4, plan[0].Month)
		assert.Equal(t, 2, plan[0].NumTourStarts)
	})

	t.Run("delete tour removes reviews", func(t *testing.T) {
		require.NoError(t, tours.Delete(ctx, near.ID))
		assert.ErrorIs(t, tours.Delete(ctx, near.ID), store.ErrTourNotFound)

		left, err := reviews.Find(ctx, query.New(query.Options{}).Where("tour", query.OpEq, near.ID))
		require.NoError(t, err)
		assert.Empty(t, left)
	})
}

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// Fixture file names inside the data directory.
const (
	toursFile   = "tours.json"
	usersFile   = "users.json"
	reviewsFile = "reviews.json"
)

// userFixture carries a plaintext password that is hashed on import.
type userFixture struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	Photo    string      `json:"photo"`
	Password string      `json:"password"`
}

type tourFixture struct {
	ID uuid.UUID `json:"id"`
	domain.TourInput
}

type reviewFixture struct {
	ID uuid.UUID `json:"id"`
	domain.ReviewInput
}

type fixtures struct {
	Tours   []tourFixture
	Users   []userFixture
	Reviews []reviewFixture
}

func loadFixtures(fsys fs.FS) (*fixtures, error) {
	var data fixtures
	files := []struct {
		name string
		dst  any
	}{
		{toursFile, &data.Tours},
		{usersFile, &data.Users},
		{reviewsFile, &data.Reviews},
	}
	for _, f := range files {
		raw, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.name, err)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", f.name, err)
		}
	}
	return &data, nil
}

// seeder writes fixtures through the stores, so every driver gets the
// same data set.
type seeder struct {
	tours   store.TourStore
	users   store.UserStore
	reviews store.ReviewStore
	tx      store.Transactor
	hasher  auth.PasswordHasher
	logger  *slog.Logger
}

// Import creates users, then tours, then reviews, and finally recomputes
// the rating of every reviewed tour.
func (s *seeder) Import(ctx context.Context, data *fixtures) error {
	for _, f := range data.Users {
		user, err := domain.NewUser(f.Name, f.Email, f.Password, f.Role)
		if err != nil {
			return fmt.Errorf("invalid user %q: %w", f.Email, err)
		}
		if f.ID != uuid.Nil {
			user.ID = f.ID
		}
		if f.Photo != "" {
			user.Photo = f.Photo
		}
		hash, err := s.hasher.Hash(f.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password of %q: %w", f.Email, err)
		}
		user.HashedPassword = hash
		user.Password = ""

		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to import user %q: %w", f.Email, err)
		}
	}

	for _, f := range data.Tours {
		tour, err := domain.NewTour(&f.TourInput)
		if err != nil {
			return fmt.Errorf("invalid tour %q: %w", f.Name, err)
		}
		if f.ID != uuid.Nil {
			tour.ID = f.ID
		}
		if err := s.tours.Create(ctx, tour); err != nil {
			return fmt.Errorf("failed to import tour %q: %w", f.Name, err)
		}
	}

	reviewed := make(map[uuid.UUID]struct{})
	var order []uuid.UUID
	for _, f := range data.Reviews {
		review, err := domain.NewReview(&f.ReviewInput)
		if err != nil {
			return fmt.Errorf("invalid review of tour %s: %w", f.Tour, err)
		}
		if f.ID != uuid.Nil {
			review.ID = f.ID
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			return fmt.Errorf("failed to import review of tour %s: %w", f.Tour, err)
		}
		if _, ok := reviewed[review.TourID]; !ok {
			reviewed[review.TourID] = struct{}{}
			order = append(order, review.TourID)
		}
	}

	for _, tourID := range order {
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			_, err := s.reviews.RecomputeTourRating(ctx, tourID)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to recompute rating of tour %s: %w", tourID, err)
		}
	}

	s.logger.Info("data successfully imported",
		"users", len(data.Users),
		"tours", len(data.Tours),
		"reviews", len(data.Reviews))
	return nil
}

// Delete removes every review, tour and user, in that order.
func (s *seeder) Delete(ctx context.Context) error {
	if err := s.reviews.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	if err := s.tours.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete tours: %w", err)
	}
	if err := s.users.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	s.logger.Info("data successfully deleted")
	return nil
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/query"
)

// TourStore defines the interface for tour data persistence and the
// tour aggregations.
type TourStore interface {
	// Find returns the tours matching a Spec resolved against TourSchema.
	Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error)

	// GetByID retrieves a tour. Returns ErrTourNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error)

	// Create saves a new tour. Returns ErrTourNameExists on a name clash.
	Create(ctx context.Context, tour *domain.Tour) error

	// Update replaces a tour's client-editable fields. Ratings are left
	// untouched; they only change through SetRatings.
	// Returns ErrTourNotFound or ErrTourNameExists.
	Update(ctx context.Context, tour *domain.Tour) error

	// SetRatings writes the derived rating fields of a tour.
	// Returns ErrTourNotFound if the tour does not exist.
	SetRatings(ctx context.Context, stats domain.RatingStats) error

	// Delete removes a tour and its reviews.
	// Returns ErrTourNotFound if the tour does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// Stats groups tours rated at least minRating by difficulty.
	Stats(ctx context.Context, minRating float64) ([]domain.TourStats, error)

	// MonthlyPlan counts tour starts per month of year.
	MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error)

	// Within returns tours starting inside the spherical cap of radius
	// radians around center.
	Within(ctx context.Context, center domain.GeoPoint, radius float64) ([]*domain.Tour, error)

	// Distances returns every located tour's distance from center, in
	// meters scaled by multiplier, nearest first.
	Distances(ctx context.Context, center domain.GeoPoint, multiplier float64) ([]domain.TourDistance, error)

	// DeleteAll removes every tour. Used by the seed command.
	DeleteAll(ctx context.Context) error
}

// UserStore defines the interface for user data persistence.
// Inactive users are invisible to every read.
type UserStore interface {
	// Find returns the users matching a Spec resolved against UserSchema.
	Find(ctx context.Context, spec query.Spec) ([]*domain.User, error)

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist or is inactive.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	// Returns ErrUserNotFound if the user does not exist or is inactive.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetToken retrieves the user holding the hashed reset token
	// whose expiry is after now. Returns ErrUserNotFound otherwise.
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)

	// Summaries returns the public projection of the given users. Unknown
	// or inactive ids are skipped. Order follows ids.
	Summaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error)

	// Create saves a new user. The caller MUST set HashedPassword.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// Update writes every persisted field of user, including credentials,
	// reset state and the active flag.
	// Returns ErrUserNotFound or ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user permanently.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteAll removes every user. Used by the seed command.
	DeleteAll(ctx context.Context) error
}

// ReviewStore defines the interface for review data persistence.
// Reads populate Review.Author.
type ReviewStore interface {
	// Find returns the reviews matching a Spec resolved against ReviewSchema.
	Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error)

	// GetByID retrieves a review. Returns ErrReviewNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)

	// Create saves a new review.
	// Returns ErrReviewExists when the user already reviewed the tour and
	// ErrReferenceNotFound when the tour or user does not exist.
	Create(ctx context.Context, review *domain.Review) error

	// Update writes the review text and rating.
	// Returns ErrReviewNotFound if the review does not exist.
	Update(ctx context.Context, review *domain.Review) error

	// Delete removes a review.
	// Returns ErrReviewNotFound if the review does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// RecomputeTourRating aggregates the tour's reviews and writes the
	// result to the tour. With no reviews left the tour falls back to the
	// default rating.
	RecomputeTourRating(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error)

	// DeleteAll removes every review. Used by the seed command.
	DeleteAll(ctx context.Context) error
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

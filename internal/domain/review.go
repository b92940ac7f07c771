package domain

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Review validation errors
var (
	ErrEmptyReview    = errors.New("a review can't be left blank")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrReviewNoTour   = errors.New("review must belong to a tour")
	ErrReviewNoAuthor = errors.New("review must belong to a user")
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a tour. At most one exists per (tour, user).
type Review struct {
	ID        uuid.UUID    `json:"id"`
	Review    string       `json:"review"`
	Rating    int          `json:"rating"`
	CreatedAt time.Time    `json:"createdAt"`
	TourID    uuid.UUID    `json:"tour"`
	UserID    uuid.UUID    `json:"user"`
	Author    *UserSummary `json:"author,omitempty"`
}

// ReviewInput is the client payload for creating a review. Tour and User
// are normally injected from the route and the authenticated identity.
type ReviewInput struct {
	Review string    `json:"review" validate:"required"`
	Rating int       `json:"rating" validate:"required,min=1,max=5"`
	Tour   uuid.UUID `json:"tour"`
	User   uuid.UUID `json:"user"`
}

// NewReview builds a validated Review from client input.
func NewReview(in *ReviewInput) (*Review, error) {
	r := &Review{
		ID:        uuid.New(),
		Review:    strings.TrimSpace(in.Review),
		Rating:    in.Rating,
		CreatedAt: time.Now().UTC(),
		TourID:    in.Tour,
		UserID:    in.User,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the review's invariants.
func (r *Review) Validate() error {
	if r.ID == uuid.Nil {
		return NewValidationError("id", "id cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(r.Review) == "" {
		return FieldError("review", ErrEmptyReview)
	}
	if r.Rating < MinRating || r.Rating > MaxRating {
		return FieldError("rating", ErrInvalidRating)
	}
	if r.TourID == uuid.Nil {
		return FieldError("tour", ErrReviewNoTour)
	}
	if r.UserID == uuid.Nil {
		return FieldError("user", ErrReviewNoAuthor)
	}
	return nil
}

// ReviewPatch is a partial update of a review's text or rating.
type ReviewPatch struct {
	Review *string `json:"review" validate:"omitempty,min=1"`
	Rating *int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

// Apply copies the set fields onto r.
func (p *ReviewPatch) Apply(r *Review) {
	if p.Review != nil {
		r.Review = strings.TrimSpace(*p.Review)
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
}

// RatingStats is the aggregate of a tour's reviews.
type RatingStats struct {
	TourID   uuid.UUID
	Quantity int
	Average  float64
}

// NewRatingStats normalizes a raw aggregate: the average is rounded to one
// decimal and a tour without reviews falls back to the defaults.
func NewRatingStats(tourID uuid.UUID, quantity int, average float64) RatingStats {
	if quantity <= 0 {
		return RatingStats{TourID: tourID, Quantity: 0, Average: DefaultRatingsAverage}
	}
	return RatingStats{TourID: tourID, Quantity: quantity, Average: RoundRating(average)}
}

// ComputeRatingStats aggregates ratings in memory.
func ComputeRatingStats(tourID uuid.UUID, ratings []int) RatingStats {
	if len(ratings) == 0 {
		return NewRatingStats(tourID, 0, 0)
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return NewRatingStats(tourID, len(ratings), float64(sum)/float64(len(ratings)))
}

// RoundRating rounds to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

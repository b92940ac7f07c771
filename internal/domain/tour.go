package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tour validation errors
var (
	ErrEmptyTourName      = errors.New("a tour must have a name")
	ErrTourNameLength     = errors.New("a tour name must have between 10 and 40 characters")
	ErrInvalidDuration    = errors.New("a tour must have a positive duration")
	ErrInvalidGroupSize   = errors.New("a tour must have a positive group size")
	ErrInvalidDifficulty  = errors.New("difficulty is either: easy, medium, difficult")
	ErrInvalidPrice       = errors.New("a tour must have a positive price")
	ErrInvalidDiscount    = errors.New("discount price should be below regular price")
	ErrEmptySummary       = errors.New("a tour must have a summary")
	ErrInvalidRatingsMean = errors.New("rating must be between 1 and 5")
)

// Tour name bounds.
const (
	MinTourNameLength = 10
	MaxTourNameLength = 40
)

// DefaultRatingsAverage is the rating shown for a tour with no reviews.
const DefaultRatingsAverage = 4.5

// Difficulty tiers a tour can be rated at.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyDifficult:
		return true
	}
	return false
}

// Tour is a bookable trip. RatingsAverage and RatingsQuantity are derived
// from reviews and never accepted from clients.
type Tour struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Duration        int         `json:"duration"`
	MaxGroupSize    int         `json:"maxGroupSize"`
	Difficulty      Difficulty  `json:"difficulty"`
	RatingsAverage  float64     `json:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity"`
	Price           float64     `json:"price"`
	PriceDiscount   *float64    `json:"priceDiscount,omitempty"`
	Summary         string      `json:"summary"`
	Description     string      `json:"description,omitempty"`
	ImageCover      string      `json:"imageCover,omitempty"`
	Images          []string    `json:"images"`
	StartDates      []time.Time `json:"startDates"`
	StartLocation   *GeoPoint   `json:"startLocation,omitempty"`
	Guides          []uuid.UUID `json:"guides"`
	CreatedAt       time.Time   `json:"createdAt"`

	// Populated only when expanded.
	GuideDetails []UserSummary `json:"guideDetails,omitempty"`
	Reviews      []*Review     `json:"reviews,omitempty"`
}

// TourInput is the client payload for creating a tour.
type TourInput struct {
	Name          string      `json:"name" validate:"required,min=10,max=40"`
	Duration      int         `json:"duration" validate:"required,gt=0"`
	MaxGroupSize  int         `json:"maxGroupSize" validate:"required,gt=0"`
	Difficulty    Difficulty  `json:"difficulty" validate:"required,oneof=easy medium difficult"`
	Price         float64     `json:"price" validate:"required,gt=0"`
	PriceDiscount *float64    `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary       string      `json:"summary" validate:"required"`
	Description   string      `json:"description"`
	ImageCover    string      `json:"imageCover"`
	Images        []string    `json:"images"`
	StartDates    []time.Time `json:"startDates"`
	StartLocation *GeoPoint   `json:"startLocation"`
	Guides        []uuid.UUID `json:"guides"`
}

// NewTour builds a validated Tour from client input with default ratings.
func NewTour(in *TourInput) (*Tour, error) {
	t := &Tour{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(in.Name),
		Duration:       in.Duration,
		MaxGroupSize:   in.MaxGroupSize,
		Difficulty:     in.Difficulty,
		RatingsAverage: DefaultRatingsAverage,
		Price:          in.Price,
		PriceDiscount:  in.PriceDiscount,
		Summary:        strings.TrimSpace(in.Summary),
		Description:    strings.TrimSpace(in.Description),
		ImageCover:     in.ImageCover,
		Images:         nonNil(in.Images),
		StartDates:     nonNil(in.StartDates),
		StartLocation:  in.StartLocation,
		Guides:         nonNil(in.Guides),
		CreatedAt:      time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the tour's invariants.
func (t *Tour) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "id cannot be empty", ErrInvalidID)
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return FieldError("name", ErrEmptyTourName)
	}
	if n := len([]rune(name)); n < MinTourNameLength || n > MaxTourNameLength {
		return FieldError("name", ErrTourNameLength)
	}
	if t.Duration <= 0 {
		return FieldError("duration", ErrInvalidDuration)
	}
	if t.MaxGroupSize <= 0 {
		return FieldError("maxGroupSize", ErrInvalidGroupSize)
	}
	if !t.Difficulty.Valid() {
		return FieldError("difficulty", ErrInvalidDifficulty)
	}
	if t.Price <= 0 {
		return FieldError("price", ErrInvalidPrice)
	}
	if t.PriceDiscount != nil && (*t.PriceDiscount < 0 || *t.PriceDiscount >= t.Price) {
		return FieldError("priceDiscount", ErrInvalidDiscount)
	}
	if strings.TrimSpace(t.Summary) == "" {
		return FieldError("summary", ErrEmptySummary)
	}
	if t.RatingsQuantity > 0 && (t.RatingsAverage < 1 || t.RatingsAverage > 5) {
		return FieldError("ratingsAverage", ErrInvalidRatingsMean)
	}
	if t.StartLocation != nil {
		if err := t.StartLocation.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TourPatch is a partial update. Nil fields are left unchanged.
type TourPatch struct {
	Name          *string      `json:"name" validate:"omitempty,min=10,max=40"`
	Duration      *int         `json:"duration" validate:"omitempty,gt=0"`
	MaxGroupSize  *int         `json:"maxGroupSize" validate:"omitempty,gt=0"`
	Difficulty    *Difficulty  `json:"difficulty" validate:"omitempty,oneof=easy medium difficult"`
	Price         *float64     `json:"price" validate:"omitempty,gt=0"`
	PriceDiscount *float64     `json:"priceDiscount" validate:"omitempty,gte=0"`
	Summary       *string      `json:"summary" validate:"omitempty,min=1"`
	Description   *string      `json:"description"`
	ImageCover    *string      `json:"imageCover"`
	Images        *[]string    `json:"images"`
	StartDates    *[]time.Time `json:"startDates"`
	StartLocation *GeoPoint    `json:"startLocation"`
	Guides        *[]uuid.UUID `json:"guides"`
}

// Apply copies the set fields onto t. The caller re-validates t afterwards.
func (p *TourPatch) Apply(t *Tour) {
	if p.Name != nil {
		t.Name = strings.TrimSpace(*p.Name)
	}
	if p.Duration != nil {
		t.Duration = *p.Duration
	}
	if p.MaxGroupSize != nil {
		t.MaxGroupSize = *p.MaxGroupSize
	}
	if p.Difficulty != nil {
		t.Difficulty = *p.Difficulty
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.PriceDiscount != nil {
		d := *p.PriceDiscount
		t.PriceDiscount = &d
	}
	if p.Summary != nil {
		t.Summary = strings.TrimSpace(*p.Summary)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.ImageCover != nil {
		t.ImageCover = *p.ImageCover
	}
	if p.Images != nil {
		t.Images = nonNil(*p.Images)
	}
	if p.StartDates != nil {
		t.StartDates = nonNil(*p.StartDates)
	}
	if p.StartLocation != nil {
		loc := *p.StartLocation
		t.StartLocation = &loc
	}
	if p.Guides != nil {
		t.Guides = nonNil(*p.Guides)
	}
}

// TourStats is one difficulty group of the tour statistics report.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// StatsMinRating is the ratingsAverage floor for tours counted in TourStats.
const StatsMinRating = 4.5

// MonthlyPlan is one month of tour starts within a year.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourDistance is a tour's distance from a reference point in the requested unit.
type TourDistance struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTourInput() *TourInput {
	return &TourInput{
		Name:         "The Forest Hiker",
		Duration:     5,
		MaxGroupSize: 25,
		Difficulty:   DifficultyEasy,
		Price:        397,
		Summary:      "Breathtaking hike through the Canadian Banff National Park",
	}
}

func TestNewTour(t *testing.T) {
	t.Parallel()

	tour, err := NewTour(validTourInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, tour.ID)
	assert.Equal(t, DefaultRatingsAverage, tour.RatingsAverage)
	assert.Zero(t, tour.RatingsQuantity)
	assert.NotNil(t, tour.Images)
	assert.NotNil(t, tour.StartDates)
	assert.NotNil(t, tour.Guides)
	assert.False(t, tour.CreatedAt.IsZero())
}

func TestNewTourValidation(t *testing.T) {
	t.Parallel()

	discount := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		mutate  func(in *TourInput)
		field   string
		wantErr error
	}{
		{"empty name", func(in *TourInput) { in.Name = "   " }, "name", ErrEmptyTourName},
		{"short name", func(in *TourInput) { in.Name = "Short" }, "name", ErrTourNameLength},
		{"long name", func(in *TourInput) { in.Name = "A tour name that is far too long to be accepted" }, "name", ErrTourNameLength},
		{"zero duration", func(in *TourInput) { in.Duration = 0 }, "duration", ErrInvalidDuration},
		{"zero group", func(in *TourInput) { in.MaxGroupSize = 0 }, "maxGroupSize", ErrInvalidGroupSize},
		{"unknown difficulty", func(in *TourInput) { in.Difficulty = "extreme" }, "difficulty", ErrInvalidDifficulty},
		{"zero price", func(in *TourInput) { in.Price = 0 }, "price", ErrInvalidPrice},
		{"discount equals price", func(in *TourInput) { in.PriceDiscount = discount(397) }, "priceDiscount", ErrInvalidDiscount},
		{"discount above price", func(in *TourInput) { in.PriceDiscount = discount(500) }, "priceDiscount", ErrInvalidDiscount},
		{"missing summary", func(in *TourInput) { in.Summary = "" }, "summary", ErrEmptySummary},
		{"bad location", func(in *TourInput) {
			p := NewGeoPoint(95, 10)
			in.StartLocation = &p
		}, "startLocation.coordinates", ErrInvalidLocation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			in := validTourInput()
			tc.mutate(in)

			_, err := NewTour(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestTourDiscountBelowPrice(t *testing.T) {
	t.Parallel()

	in := validTourInput()
	d := 100.0
	in.PriceDiscount = &d
	_, err := NewTour(in)
	assert.NoError(t, err)
}

func TestTourPatchApply(t *testing.T) {
	t.Parallel()

	tour, err := NewTour(validTourInput())
	require.NoError(t, err)
	originalName := tour.Name

	price := 150.0
	difficulty := DifficultyDifficult
	dates := []time.Time{time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}

	patch := &TourPatch{Price: &price, Difficulty: &difficulty, StartDates: &dates}
	patch.Apply(tour)

	assert.Equal(t, originalName, tour.Name)
	assert.Equal(t, 150.0, tour.Price)
	assert.Equal(t, DifficultyDifficult, tour.Difficulty)
	assert.Equal(t, dates, tour.StartDates)
	assert.NoError(t, tour.Validate())

	// A discount patched above the current price fails re-validation.
	discount := 200.0
	(&TourPatch{PriceDiscount: &discount}).Apply(tour)
	assert.ErrorIs(t, tour.Validate(), ErrInvalidDiscount)
}

func TestDifficultyValid(t *testing.T) {
	t.Parallel()

	assert.True(t, DifficultyEasy.Valid())
	assert.True(t, DifficultyMedium.Valid())
	assert.True(t, DifficultyDifficult.Valid())
	assert.False(t, Difficulty("EASY").Valid())
	assert.False(t, Difficulty("").Valid())
}

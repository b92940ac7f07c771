package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &DB{Pool: mock}, mock
}

// rowArgs matches an Exec keyed by id in $1 followed by n-1 other
// placeholders.
func rowArgs(id uuid.UUID, n int) []any {
	args := []any{id}
	for range n - 1 {
		args = append(args, pgxmock.AnyArg())
	}
	return args
}

var tourRowColumns = []string{
	"id", "name", "duration", "max_group_size", "difficulty", "ratings_average", "ratings_quantity",
	"price", "price_discount", "summary", "description", "image_cover", "images", "start_dates",
	"start_location", "guides", "created_at",
}

func sampleTour() *domain.Tour {
	loc := domain.NewGeoPoint(51.417611, -116.214531)
	return &domain.Tour{
		ID:             uuid.New(),
		Name:           "The Forest Hiker",
		Duration:       5,
		MaxGroupSize:   25,
		Difficulty:     domain.DifficultyEasy,
		RatingsAverage: 4.7,
		Price:          397,
		Summary:        "Breathtaking hike through the Canadian Banff National Park",
		Images:         []string{"tour-1-1.jpg"},
		StartDates:     []time.Time{time.Date(2025, 4, 25, 9, 0, 0, 0, time.UTC)},
		StartLocation:  &loc,
		Guides:         []uuid.UUID{uuid.New()},
		CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func tourRow(t *domain.Tour) []any {
	return []any{
		t.ID, t.Name, t.Duration, t.MaxGroupSize, string(t.Difficulty), t.RatingsAverage,
		t.RatingsQuantity, t.Price, t.PriceDiscount, t.Summary, t.Description, t.ImageCover,
		t.Images, t.StartDates, t.StartLocation, t.Guides, t.CreatedAt,
	}
}

var userRowColumns = []string{
	"id", "name", "email", "photo", "role", "hashed_password", "password_changed_at",
	"password_reset_token", "password_reset_expires", "active", "created_at",
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Name:           "Leo Gillespie",
		Email:          "leo@example.io",
		Photo:          domain.DefaultPhoto,
		Role:           domain.RoleGuide,
		HashedPassword: "$2a$12$abcdefghijklmnopqrstuv",
		Active:         true,
		CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func userRow(u *domain.User) []any {
	var token *string
	if u.PasswordResetToken != "" {
		token = &u.PasswordResetToken
	}
	return []any{
		u.ID, u.Name, u.Email, u.Photo, string(u.Role), u.HashedPassword, u.PasswordChangedAt,
		token, u.PasswordResetExpires, u.Active, u.CreatedAt,
	}
}

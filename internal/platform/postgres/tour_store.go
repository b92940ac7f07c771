package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
)

var tourColumns = columns{
	"id":              "id",
	"name":            "name",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"summary":         "summary",
	"description":     "description",
	"imageCover":      "image_cover",
	"createdAt":       "created_at",
}

const tourSelect = `SELECT id, name, duration, max_group_size, difficulty, ratings_average, ratings_quantity, ` +
	`price, price_discount, summary, description, image_cover, images, start_dates, start_location, guides, created_at ` +
	`FROM tours`

// angularDistanceSQL is the haversine central angle between a tour's start
// location and the point ($1 latitude, $2 longitude).
const angularDistanceSQL = `2 * ASIN(LEAST(1, SQRT(` +
	`POWER(SIN(RADIANS((start_location->'coordinates'->>1)::float8 - $1) / 2), 2) + ` +
	`COS(RADIANS($1)) * COS(RADIANS((start_location->'coordinates'->>1)::float8)) * ` +
	`POWER(SIN(RADIANS((start_location->'coordinates'->>0)::float8 - $2) / 2), 2))))`

// PostgresTourStore implements the store.TourStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTourStore struct {
	db     *DB
	logger *slog.Logger
}

// NewPostgresTourStore creates a new PostgreSQL implementation of the TourStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTourStore(db *DB, logger *slog.Logger) *PostgresTourStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTourStore{
		db:     db,
		logger: logger.With(slog.String("component", "tour_store")),
	}
}

// Ensure PostgresTourStore implements store.TourStore interface
var _ store.TourStore = (*PostgresTourStore)(nil)

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	var difficulty string
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Duration,
		&t.MaxGroupSize,
		&difficulty,
		&t.RatingsAverage,
		&t.RatingsQuantity,
		&t.Price,
		&t.PriceDiscount,
		&t.Summary,
		&t.Description,
		&t.ImageCover,
		&t.Images,
		&t.StartDates,
		&t.StartLocation,
		&t.Guides,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Difficulty = domain.Difficulty(difficulty)
	if t.Images == nil {
		t.Images = []string{}
	}
	if t.StartDates == nil {
		t.StartDates = []time.Time{}
	}
	if t.Guides == nil {
		t.Guides = []uuid.UUID{}
	}
	return &t, nil
}

func collectTours(rows pgx.Rows) ([]*domain.Tour, error) {
	defer rows.Close()
	tours := []*domain.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tour: %w", err)
		}
		tours = append(tours, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tours, nil
}

// Find implements store.TourStore.Find
func (s *PostgresTourStore) Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sql, args, err := renderList(tourSelect, spec, tourColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to render tour query: %w", err)
	}

	rows, err := s.db.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		log.Error("failed to query tours", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	tours, err := collectTours(rows)
	if err != nil {
		log.Error("failed to read tours", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("tours listed", slog.Int("count", len(tours)))
	return tours, nil
}

// GetByID implements store.TourStore.GetByID
// Returns store.ErrTourNotFound if the tour does not exist.
func (s *PostgresTourStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tour, err := scanTour(s.db.conn(ctx).QueryRow(ctx, tourSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug("tour not found", slog.String("tour_id", id.String()))
			return nil, store.ErrTourNotFound
		}
		log.Error("failed to get tour",
			slog.String("error", err.Error()),
			slog.String("tour_id", id.String()))
		return nil, MapError(err)
	}
	return tour, nil
}

// Create implements store.TourStore.Create
// Returns store.ErrTourNameExists if the name is already taken.
func (s *PostgresTourStore) Create(ctx context.Context, tour *domain.Tour) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tour.Validate(); err != nil {
		log.Warn("tour validation failed during create",
			slog.String("error", err.Error()),
			slog.String("tour_id", tour.ID.String()))
		return err
	}

	const sql = `
		INSERT INTO tours (id, name, duration, max_group_size, difficulty, ratings_average,
			ratings_quantity, price, price_discount, summary, description, image_cover, images,
			start_dates, start_location, guides, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.conn(ctx).Exec(ctx, sql,
		tour.ID,
		tour.Name,
		tour.Duration,
		tour.MaxGroupSize,
		string(tour.Difficulty),
		tour.RatingsAverage,
		tour.RatingsQuantity,
		tour.Price,
		tour.PriceDiscount,
		tour.Summary,
		tour.Description,
		tour.ImageCover,
		tour.Images,
		tour.StartDates,
		tour.StartLocation,
		tour.Guides,
		tour.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("tour name already exists", slog.String("name", tour.Name))
			return MapError(err)
		}
		log.Error("failed to create tour",
			slog.String("error", err.Error()),
			slog.String("tour_id", tour.ID.String()))
		return MapError(err)
	}

	log.Info("tour created successfully",
		slog.String("tour_id", tour.ID.String()),
		slog.String("name", tour.Name))
	return nil
}

// Update implements store.TourStore.Update
func (s *PostgresTourStore) Update(ctx context.Context, tour *domain.Tour) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tour.Validate(); err != nil {
		return err
	}

	const sql = `
		UPDATE tours
		SET name = $2, duration = $3, max_group_size = $4, difficulty = $5, price = $6,
			price_discount = $7, summary = $8, description = $9, image_cover = $10, images = $11,
			start_dates = $12, start_location = $13, guides = $14
		WHERE id = $1
	`
	tag, err := s.db.conn(ctx).Exec(ctx, sql,
		tour.ID,
		tour.Name,
		tour.Duration,
		tour.MaxGroupSize,
		string(tour.Difficulty),
		tour.Price,
		tour.PriceDiscount,
		tour.Summary,
		tour.Description,
		tour.ImageCover,
		tour.Images,
		tour.StartDates,
		tour.StartLocation,
		tour.Guides,
	)
	if err != nil {
		log.Error("failed to update tour",
			slog.String("error", err.Error()),
			slog.String("tour_id", tour.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(tag, store.ErrTourNotFound); err != nil {
		return err
	}

	log.Debug("tour updated", slog.String("tour_id", tour.ID.String()))
	return nil
}

// SetRatings implements store.TourStore.SetRatings
func (s *PostgresTourStore) SetRatings(ctx context.Context, stats domain.RatingStats) error {
	tag, err := s.db.conn(ctx).Exec(ctx,
		`UPDATE tours SET ratings_quantity = $2, ratings_average = $3 WHERE id = $1`,
		stats.TourID, stats.Quantity, stats.Average)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrTourNotFound)
}

// Delete implements store.TourStore.Delete
// Reviews of the tour are removed by the foreign key cascade.
func (s *PostgresTourStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tag, err := s.db.conn(ctx).Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete tour",
			slog.String("error", err.Error()),
			slog.String("tour_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(tag, store.ErrTourNotFound); err != nil {
		return err
	}

	log.Info("tour deleted", slog.String("tour_id", id.String()))
	return nil
}

// Stats implements store.TourStore.Stats
func (s *PostgresTourStore) Stats(ctx context.Context, minRating float64) ([]domain.TourStats, error) {
	const sql = `
		SELECT UPPER(difficulty) AS difficulty, COUNT(*), COALESCE(SUM(ratings_quantity), 0),
			AVG(ratings_average), AVG(price), MIN(price), MAX(price)
		FROM tours
		WHERE ratings_average >= $1
		GROUP BY UPPER(difficulty)
		ORDER BY AVG(price) ASC
	`
	rows, err := s.db.conn(ctx).Query(ctx, sql, minRating)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	stats := []domain.TourStats{}
	for rows.Next() {
		var st domain.TourStats
		if err := rows.Scan(&st.Difficulty, &st.NumTours, &st.NumRatings, &st.AvgRating,
			&st.AvgPrice, &st.MinPrice, &st.MaxPrice); err != nil {
			return nil, fmt.Errorf("failed to scan tour stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// MonthlyPlan implements store.TourStore.MonthlyPlan
func (s *PostgresTourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	const sql = `
		SELECT EXTRACT(MONTH FROM d AT TIME ZONE 'UTC')::int AS month, COUNT(*)::int AS num_tour_starts,
			array_agg(t.name ORDER BY t.name) AS tours
		FROM tours t CROSS JOIN LATERAL unnest(t.start_dates) AS d
		WHERE d >= $1 AND d < $2
		GROUP BY month
		ORDER BY num_tour_starts DESC, month ASC
		LIMIT 12
	`
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	rows, err := s.db.conn(ctx).Query(ctx, sql, from, to)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	plan := []domain.MonthlyPlan{}
	for rows.Next() {
		var p domain.MonthlyPlan
		if err := rows.Scan(&p.Month, &p.NumTourStarts, &p.Tours); err != nil {
			return nil, fmt.Errorf("failed to scan monthly plan: %w", err)
		}
		plan = append(plan, p)
	}
	return plan, rows.Err()
}

// Within implements store.TourStore.Within
func (s *PostgresTourStore) Within(ctx context.Context, center domain.GeoPoint, radius float64) ([]*domain.Tour, error) {
	sql := tourSelect +
		` WHERE start_location IS NOT NULL AND ` + angularDistanceSQL + ` <= $3` +
		` ORDER BY created_at DESC, id ASC`

	rows, err := s.db.conn(ctx).Query(ctx, sql, center.Lat(), center.Lng(), radius)
	if err != nil {
		return nil, MapError(err)
	}
	return collectTours(rows)
}

// Distances implements store.TourStore.Distances
func (s *PostgresTourStore) Distances(ctx context.Context, center domain.GeoPoint, multiplier float64) ([]domain.TourDistance, error) {
	sql := `SELECT id, name, ` + angularDistanceSQL + ` * $3 * $4 AS distance` +
		` FROM tours WHERE start_location IS NOT NULL ORDER BY distance ASC, id ASC`

	rows, err := s.db.conn(ctx).Query(ctx, sql, center.Lat(), center.Lng(), domain.EarthRadiusM, multiplier)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	out := []domain.TourDistance{}
	for rows.Next() {
		var d domain.TourDistance
		if err := rows.Scan(&d.ID, &d.Name, &d.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan tour distance: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteAll implements store.TourStore.DeleteAll
func (s *PostgresTourStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.conn(ctx).Exec(ctx, `DELETE FROM tours`)
	return MapError(err)
}

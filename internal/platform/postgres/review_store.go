package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
)

var reviewColumns = columns{
	"id":        "r.id",
	"review":    "r.review",
	"rating":    "r.rating",
	"tour":      "r.tour_id",
	"user":      "r.user_id",
	"createdAt": "r.created_at",
}

const reviewSelect = `SELECT r.id, r.review, r.rating, r.created_at, r.tour_id, r.user_id, ` +
	`COALESCE(u.name, ''), COALESCE(u.photo, '') ` +
	`FROM reviews r LEFT JOIN users u ON u.id = r.user_id`

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend.
type PostgresReviewStore struct {
	db     *DB
	tours  store.TourStore
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// tours receives the recomputed ratings.
func NewPostgresReviewStore(db *DB, tours store.TourStore, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresReviewStore{
		db:     db,
		tours:  tours,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

func scanReview(row pgx.Row) (*domain.Review, error) {
	var r domain.Review
	var author domain.UserSummary
	if err := row.Scan(&r.ID, &r.Review, &r.Rating, &r.CreatedAt, &r.TourID, &r.UserID,
		&author.Name, &author.Photo); err != nil {
		return nil, err
	}
	if author.Name != "" {
		author.ID = r.UserID
		r.Author = &author
	}
	return &r, nil
}

// Find implements store.ReviewStore.Find
func (s *PostgresReviewStore) Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	sql, args, err := renderList(reviewSelect, spec, reviewColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to render review query: %w", err)
	}
	rows, err := s.db.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		log.Error("failed to query reviews", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// GetByID implements store.ReviewStore.GetByID
func (s *PostgresReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	r, err := scanReview(s.db.conn(ctx).QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrReviewNotFound
		}
		return nil, MapError(err)
	}
	return r, nil
}

// Create implements store.ReviewStore.Create
func (s *PostgresReviewStore) Create(ctx context.Context, review *domain.Review) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := review.Validate(); err != nil {
		return err
	}

	const sql = `
		INSERT INTO reviews (id, review, rating, tour_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.conn(ctx).Exec(ctx, sql,
		review.ID, review.Review, review.Rating, review.TourID, review.UserID, review.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("duplicate review",
				slog.String("tour_id", review.TourID.String()),
				slog.String("user_id", review.UserID.String()))
			return MapError(err)
		}
		if IsForeignKeyViolation(err) {
			log.Warn("review references a missing tour or user",
				slog.String("tour_id", review.TourID.String()),
				slog.String("user_id", review.UserID.String()))
			return MapError(err)
		}
		log.Error("failed to create review",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return MapError(err)
	}

	log.Info("review created",
		slog.String("review_id", review.ID.String()),
		slog.String("tour_id", review.TourID.String()))
	return nil
}

// Update implements store.ReviewStore.Update
func (s *PostgresReviewStore) Update(ctx context.Context, review *domain.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}
	tag, err := s.db.conn(ctx).Exec(ctx,
		`UPDATE reviews SET review = $2, rating = $3 WHERE id = $1`,
		review.ID, review.Review, review.Rating)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrReviewNotFound)
}

// Delete implements store.ReviewStore.Delete
func (s *PostgresReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.conn(ctx).Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(tag, store.ErrReviewNotFound)
}

// RecomputeTourRating implements store.ReviewStore.RecomputeTourRating
// The tour row is locked first so concurrent recomputations serialize.
func (s *PostgresReviewStore) RecomputeTourRating(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	conn := s.db.conn(ctx)

	var locked uuid.UUID
	if err := conn.QueryRow(ctx, `SELECT id FROM tours WHERE id = $1 FOR UPDATE`, tourID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RatingStats{}, store.ErrTourNotFound
		}
		return domain.RatingStats{}, MapError(err)
	}

	var quantity int
	var average float64
	err := conn.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE tour_id = $1`,
		tourID).Scan(&quantity, &average)
	if err != nil {
		return domain.RatingStats{}, MapError(err)
	}

	stats := domain.NewRatingStats(tourID, quantity, average)
	if err := s.tours.SetRatings(ctx, stats); err != nil {
		return domain.RatingStats{}, err
	}

	log.Debug("tour rating recomputed",
		slog.String("tour_id", tourID.String()),
		slog.Int("quantity", stats.Quantity),
		slog.Float64("average", stats.Average))
	return stats, nil
}

// DeleteAll implements store.ReviewStore.DeleteAll
func (s *PostgresReviewStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.conn(ctx).Exec(ctx, `DELETE FROM reviews`)
	return MapError(err)
}

package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoReviewStore implements store.ReviewStore on the reviews collection.
type MongoReviewStore struct {
	reviews *mongo.Collection
	users   *mongo.Collection
	tourCol *mongo.Collection
	tours   store.TourStore
	logger  *slog.Logger
}

// NewMongoReviewStore creates a review store. tours receives the
// recomputed ratings.
func NewMongoReviewStore(c *Client, tours store.TourStore, logger *slog.Logger) *MongoReviewStore {
	if c == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoReviewStore{
		reviews: c.db.Collection(reviewsCollection),
		users:   c.db.Collection(usersCollection),
		tourCol: c.db.Collection(toursCollection),
		tours:   tours,
		logger:  logger.With(slog.String("component", "review_store")),
	}
}

// Ensure MongoReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*MongoReviewStore)(nil)

// withAuthors attaches the author summary to each review.
func (s *MongoReviewStore) withAuthors(ctx context.Context, reviews []*domain.Review) error {
	seen := map[uuid.UUID]bool{}
	ids := []uuid.UUID{}
	for _, r := range reviews {
		if !seen[r.UserID] {
			seen[r.UserID] = true
			ids = append(ids, r.UserID)
		}
	}
	sums, err := summaries(ctx, s.users, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]domain.UserSummary, len(sums))
	for _, sum := range sums {
		byID[sum.ID] = domain.UserSummary{ID: sum.ID, Name: sum.Name, Photo: sum.Photo}
	}
	for _, r := range reviews {
		if sum, ok := byID[r.UserID]; ok {
			r.Author = &sum
		}
	}
	return nil
}

// Find implements store.ReviewStore.Find
func (s *MongoReviewStore) Find(ctx context.Context, spec query.Spec) ([]*domain.Review, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := renderFilter(spec.Conditions())
	if err != nil {
		return nil, fmt.Errorf("failed to render review query: %w", err)
	}
	cur, err := s.reviews.Find(ctx, filter, findOptions(spec))
	if err != nil {
		log.Error("failed to query reviews", slog.String("error", err.Error()))
		return nil, mapError("review", "find", err, nil, nil)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}

	reviews := make([]*domain.Review, 0, len(docs))
	for i := range docs {
		r, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	if err := s.withAuthors(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// GetByID implements store.ReviewStore.GetByID
func (s *MongoReviewStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var d reviewDoc
	if err := s.reviews.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		return nil, mapError("review", "getByID", err, store.ErrReviewNotFound, nil)
	}
	r, err := d.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.withAuthors(ctx, []*domain.Review{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *MongoReviewStore) exists(ctx context.Context, col *mongo.Collection, id uuid.UUID) (bool, error) {
	n, err := col.CountDocuments(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return false, mapError("review", "exists", err, nil, nil)
	}
	return n > 0, nil
}

// Create implements store.ReviewStore.Create
// The referenced tour and user are checked first, since documents carry
// no foreign keys.
func (s *MongoReviewStore) Create(ctx context.Context, review *domain.Review) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := review.Validate(); err != nil {
		return err
	}
	for _, ref := range []struct {
		col *mongo.Collection
		id  uuid.UUID
	}{{s.tourCol, review.TourID}, {s.users, review.UserID}} {
		ok, err := s.exists(ctx, ref.col, ref.id)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn("review references a missing tour or user",
				slog.String("tour_id", review.TourID.String()),
				slog.String("user_id", review.UserID.String()))
			return fmt.Errorf("%w: %s %s", store.ErrReferenceNotFound, ref.col.Name(), ref.id)
		}
	}

	if _, err := s.reviews.InsertOne(ctx, fromReview(review)); err != nil {
		return mapError("review", "create", err, nil, store.ErrReviewExists)
	}

	log.Info("review created",
		slog.String("review_id", review.ID.String()),
		slog.String("tour_id", review.TourID.String()))
	return nil
}

// Update implements store.ReviewStore.Update
func (s *MongoReviewStore) Update(ctx context.Context, review *domain.Review) error {
	if err := review.Validate(); err != nil {
		return err
	}
	res, err := s.reviews.UpdateByID(ctx, review.ID.String(), bson.M{"$set": bson.M{
		"review": review.Review,
		"rating": review.Rating,
	}})
	if err != nil {
		return mapError("review", "update", err, nil, nil)
	}
	if res.MatchedCount == 0 {
		return store.ErrReviewNotFound
	}
	return nil
}

// Delete implements store.ReviewStore.Delete
func (s *MongoReviewStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.reviews.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return mapError("review", "delete", err, nil, nil)
	}
	if res.DeletedCount == 0 {
		return store.ErrReviewNotFound
	}
	return nil
}

type ratingDoc struct {
	Quantity int     `bson:"nRating"`
	Average  float64 `bson:"avgRating"`
}

func ratingPipeline(tourID uuid.UUID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "tour", Value: tourID.String()}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tour"},
			{Key: "nRating", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}
}

// RecomputeTourRating implements store.ReviewStore.RecomputeTourRating
func (s *MongoReviewStore) RecomputeTourRating(ctx context.Context, tourID uuid.UUID) (domain.RatingStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cur, err := s.reviews.Aggregate(ctx, ratingPipeline(tourID))
	if err != nil {
		return domain.RatingStats{}, mapError("review", "recomputeTourRating", err, nil, nil)
	}
	var docs []ratingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return domain.RatingStats{}, fmt.Errorf("failed to decode rating stats: %w", err)
	}

	var agg ratingDoc
	if len(docs) > 0 {
		agg = docs[0]
	}
	stats := domain.NewRatingStats(tourID, agg.Quantity, agg.Average)
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
func (s *MongoReviewStore) DeleteAll(ctx context.Context) error {
	_, err := s.reviews.DeleteMany(ctx, bson.D{})
	return mapError("review", "deleteAll", err, nil, nil)
}

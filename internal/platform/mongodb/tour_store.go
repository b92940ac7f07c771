package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tourbook-api/internal/domain"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/query"
	"github.com/phrazzld/tourbook-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTourStore implements store.TourStore on the tours collection.
type MongoTourStore struct {
	tours   *mongo.Collection
	reviews *mongo.Collection
	logger  *slog.Logger
}

// NewMongoTourStore creates a tour store. If logger is nil, a default
// logger will be used.
func NewMongoTourStore(c *Client, logger *slog.Logger) *MongoTourStore {
	if c == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoTourStore{
		tours:   c.db.Collection(toursCollection),
		reviews: c.db.Collection(reviewsCollection),
		logger:  logger.With(slog.String("component", "tour_store")),
	}
}

// Ensure MongoTourStore implements store.TourStore interface
var _ store.TourStore = (*MongoTourStore)(nil)

func decodeTours(ctx context.Context, cur *mongo.Cursor) ([]*domain.Tour, error) {
	defer cur.Close(ctx)
	tours := []*domain.Tour{}
	for cur.Next(ctx) {
		var d tourDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode tour: %w", err)
		}
		t, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		tours = append(tours, t)
	}
	return tours, cur.Err()
}

// Find implements store.TourStore.Find
func (s *MongoTourStore) Find(ctx context.Context, spec query.Spec) ([]*domain.Tour, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := renderFilter(spec.Conditions())
	if err != nil {
		return nil, fmt.Errorf("failed to render tour query: %w", err)
	}
	cur, err := s.tours.Find(ctx, filter, findOptions(spec))
	if err != nil {
		log.Error("failed to query tours", slog.String("error", err.Error()))
		return nil, mapError("tour", "find", err, nil, nil)
	}
	tours, err := decodeTours(ctx, cur)
	if err != nil {
		return nil, err
	}

	log.Debug("tours listed", slog.Int("count", len(tours)))
	return tours, nil
}

// GetByID implements store.TourStore.GetByID
func (s *MongoTourStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tour, error) {
	var d tourDoc
	if err := s.tours.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		return nil, mapError("tour", "getByID", err, store.ErrTourNotFound, nil)
	}
	return d.toDomain()
}

// Create implements store.TourStore.Create
func (s *MongoTourStore) Create(ctx context.Context, tour *domain.Tour) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tour.Validate(); err != nil {
		return err
	}
	if _, err := s.tours.InsertOne(ctx, fromTour(tour)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("tour name already exists", slog.String("name", tour.Name))
		}
		return mapError("tour", "create", err, nil, store.ErrTourNameExists)
	}

	log.Info("tour created successfully",
		slog.String("tour_id", tour.ID.String()),
		slog.String("name", tour.Name))
	return nil
}

// Update implements store.TourStore.Update
func (s *MongoTourStore) Update(ctx context.Context, tour *domain.Tour) error {
	if err := tour.Validate(); err != nil {
		return err
	}
	d := fromTour(tour)
	set := bson.D{
		{Key: "name", Value: d.Name},
		{Key: "duration", Value: d.Duration},
		{Key: "maxGroupSize", Value: d.MaxGroupSize},
		{Key: "difficulty", Value: d.Difficulty},
		{Key: "price", Value: d.Price},
		{Key: "summary", Value: d.Summary},
		{Key: "description", Value: d.Description},
		{Key: "imageCover", Value: d.ImageCover},
		{Key: "images", Value: d.Images},
		{Key: "startDates", Value: d.StartDates},
		{Key: "guides", Value: d.Guides},
	}
	unset := bson.D{}
	if d.PriceDiscount != nil {
		set = append(set, bson.E{Key: "priceDiscount", Value: *d.PriceDiscount})
	} else {
		unset = append(unset, bson.E{Key: "priceDiscount", Value: ""})
	}
	if d.StartLocation != nil {
		set = append(set, bson.E{Key: "startLocation", Value: d.StartLocation})
	} else {
		unset = append(unset, bson.E{Key: "startLocation", Value: ""})
	}
	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	res, err := s.tours.UpdateByID(ctx, d.ID, update)
	if err != nil {
		return mapError("tour", "update", err, nil, store.ErrTourNameExists)
	}
	if res.MatchedCount == 0 {
		return store.ErrTourNotFound
	}
	return nil
}

// SetRatings implements store.TourStore.SetRatings
func (s *MongoTourStore) SetRatings(ctx context.Context, stats domain.RatingStats) error {
	res, err := s.tours.UpdateByID(ctx, stats.TourID.String(), bson.M{"$set": bson.M{
		"ratingsQuantity": stats.Quantity,
		"ratingsAverage":  stats.Average,
	}})
	if err != nil {
		return mapError("tour", "setRatings", err, nil, nil)
	}
	if res.MatchedCount == 0 {
		return store.ErrTourNotFound
	}
	return nil
}

// Delete implements store.TourStore.Delete
// The tour's reviews are removed after the tour itself.
func (s *MongoTourStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	res, err := s.tours.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return mapError("tour", "delete", err, nil, nil)
	}
	if res.DeletedCount == 0 {
		return store.ErrTourNotFound
	}
	if _, err := s.reviews.DeleteMany(ctx, bson.M{"tour": id.String()}); err != nil {
		log.Error("failed to delete reviews of tour",
			slog.String("error", err.Error()),
			slog.String("tour_id", id.String()))
		return mapError("tour", "delete", err, nil, nil)
	}

	log.Info("tour deleted", slog.String("tour_id", id.String()))
	return nil
}

type statsDoc struct {
	Difficulty string  `bson:"_id"`
	NumTours   int     `bson:"numTours"`
	NumRatings int     `bson:"numRatings"`
	AvgRating  float64 `bson:"avgRating"`
	AvgPrice   float64 `bson:"avgPrice"`
	MinPrice   float64 `bson:"minPrice"`
	MaxPrice   float64 `bson:"maxPrice"`
}

// statsPipeline groups tours rated at least minRating by upper-cased
// difficulty, cheapest group first.
func statsPipeline(minRating float64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "ratingsAverage", Value: bson.D{{Key: "$gte", Value: minRating}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$toUpper", Value: "$difficulty"}}},
			{Key: "numTours", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "numRatings", Value: bson.D{{Key: "$sum", Value: "$ratingsQuantity"}}},
			{Key: "avgRating", Value: bson.D{{Key: "$avg", Value: "$ratingsAverage"}}},
			{Key: "avgPrice", Value: bson.D{{Key: "$avg", Value: "$price"}}},
			{Key: "minPrice", Value: bson.D{{Key: "$min", Value: "$price"}}},
			{Key: "maxPrice", Value: bson.D{{Key: "$max", Value: "$price"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "avgPrice", Value: 1}}}},
	}
}

// Stats implements store.TourStore.Stats
func (s *MongoTourStore) Stats(ctx context.Context, minRating float64) ([]domain.TourStats, error) {
	cur, err := s.tours.Aggregate(ctx, statsPipeline(minRating))
	if err != nil {
		return nil, mapError("tour", "stats", err, nil, nil)
	}
	var docs []statsDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tour stats: %w", err)
	}

	stats := make([]domain.TourStats, 0, len(docs))
	for _, d := range docs {
		stats = append(stats, domain.TourStats(d))
	}
	return stats, nil
}

type monthDoc struct {
	Month         int      `bson:"month"`
	NumTourStarts int      `bson:"numTourStarts"`
	Tours         []string `bson:"tours"`
}

// monthlyPlanPipeline counts start dates inside [from, to) per month,
// busiest month first.
func monthlyPlanPipeline(from, to time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.D{{Key: "startDates", Value: bson.D{
			{Key: "$gte", Value: from},
			{Key: "$lt", Value: to},
		}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "name", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$month", Value: "$startDates"}}},
			{Key: "numTourStarts", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "tours", Value: bson.D{{Key: "$push", Value: "$name"}}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "month", Value: "$_id"}}}},
		{{Key: "$project", Value: bson.D{{Key: "_id", Value: 0}}}},
		{{Key: "$sort", Value: bson.D{{Key: "numTourStarts", Value: -1}, {Key: "month", Value: 1}}}},
		{{Key: "$limit", Value: 12}},
	}
}

// MonthlyPlan implements store.TourStore.MonthlyPlan
func (s *MongoTourStore) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthlyPlan, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	cur, err := s.tours.Aggregate(ctx, monthlyPlanPipeline(from, from.AddDate(1, 0, 0)))
	if err != nil {
		return nil, mapError("tour", "monthlyPlan", err, nil, nil)
	}
	var docs []monthDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode monthly plan: %w", err)
	}

	plan := make([]domain.MonthlyPlan, 0, len(docs))
	for _, d := range docs {
		plan = append(plan, domain.MonthlyPlan(d))
	}
	return plan, nil
}

// withinFilter selects tours whose start lies in the spherical cap.
func withinFilter(center domain.GeoPoint, radius float64) bson.D {
	return bson.D{{Key: "startLocation", Value: bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{bson.A{center.Lng(), center.Lat()}, radius}},
	}}}}}
}

// Within implements store.TourStore.Within
func (s *MongoTourStore) Within(ctx context.Context, center domain.GeoPoint, radius float64) ([]*domain.Tour, error) {
	opts := findOptions(query.New(query.Options{}).OrderBy(query.SortKey{Field: "createdAt", Desc: true}))
	opts.SetLimit(0)
	cur, err := s.tours.Find(ctx, withinFilter(center, radius), opts)
	if err != nil {
		return nil, mapError("tour", "within", err, nil, nil)
	}
	return decodeTours(ctx, cur)
}

type distanceDoc struct {
	ID       string  `bson:"_id"`
	Name     string  `bson:"name"`
	Distance float64 `bson:"distance"`
}

// distancesPipeline runs $geoNear, which must be the first stage and uses
// the 2dsphere index. Distances come back in meters times multiplier.
func distancesPipeline(center domain.GeoPoint, multiplier float64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: domain.GeoPointType},
				{Key: "coordinates", Value: bson.A{center.Lng(), center.Lat()}},
			}},
			{Key: "distanceField", Value: "distance"},
			{Key: "distanceMultiplier", Value: multiplier},
			{Key: "key", Value: "startLocation"},
			{Key: "spherical", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "name", Value: 1}, {Key: "distance", Value: 1}}}},
	}
}

// Distances implements store.TourStore.Distances
func (s *MongoTourStore) Distances(ctx context.Context, center domain.GeoPoint, multiplier float64) ([]domain.TourDistance, error) {
	cur, err := s.tours.Aggregate(ctx, distancesPipeline(center, multiplier))
	if err != nil {
		return nil, mapError("tour", "distances", err, nil, nil)
	}
	var docs []distanceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tour distances: %w", err)
	}

	out := make([]domain.TourDistance, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return nil, fmt.Errorf("malformed tour id %q: %w", d.ID, err)
		}
		out = append(out, domain.TourDistance{ID: id, Name: d.Name, Distance: d.Distance})
	}
	return out, nil
}

// DeleteAll implements store.TourStore.DeleteAll
func (s *MongoTourStore) DeleteAll(ctx context.Context) error {
	_, err := s.tours.DeleteMany(ctx, bson.D{})
	return mapError("tour", "deleteAll", err, nil, nil)
}

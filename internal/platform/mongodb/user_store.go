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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activeOnly hides deactivated users from every read.
var activeOnly = bson.E{Key: "active", Value: bson.D{{Key: "$ne", Value: false}}}

// MongoUserStore implements store.UserStore on the users collection.
type MongoUserStore struct {
	users   *mongo.Collection
	reviews *mongo.Collection
	logger  *slog.Logger
}

// NewMongoUserStore creates a user store. If logger is nil, a default
// logger will be used.
func NewMongoUserStore(c *Client, logger *slog.Logger) *MongoUserStore {
	if c == nil {
		panic("client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MongoUserStore{
		users:   c.db.Collection(usersCollection),
		reviews: c.db.Collection(reviewsCollection),
		logger:  logger.With(slog.String("component", "user_store")),
	}
}

// Ensure MongoUserStore implements store.UserStore interface
var _ store.UserStore = (*MongoUserStore)(nil)

func (s *MongoUserStore) getOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var d userDoc
	if err := s.users.FindOne(ctx, append(filter, activeOnly)).Decode(&d); err != nil {
		return nil, mapError("user", "getOne", err, store.ErrUserNotFound, nil)
	}
	return d.toDomain()
}

// Find implements store.UserStore.Find
func (s *MongoUserStore) Find(ctx context.Context, spec query.Spec) ([]*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	filter, err := renderFilter(spec.Conditions(), activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to render user query: %w", err)
	}
	cur, err := s.users.Find(ctx, filter, findOptions(spec))
	if err != nil {
		log.Error("failed to query users", slog.String("error", err.Error()))
		return nil, mapError("user", "find", err, nil, nil)
	}
	defer cur.Close(ctx)

	users := []*domain.User{}
	for cur.Next(ctx) {
		var d userDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		u, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, cur.Err()
}

// GetByID implements store.UserStore.GetByID
func (s *MongoUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.getOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getOne(ctx, bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

// GetByResetToken implements store.UserStore.GetByResetToken
func (s *MongoUserStore) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	if tokenHash == "" {
		return nil, store.ErrUserNotFound
	}
	return s.getOne(ctx, bson.D{
		{Key: "passwordResetToken", Value: tokenHash},
		{Key: "passwordResetExpires", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	})
}

// Summaries implements store.UserStore.Summaries
func (s *MongoUserStore) Summaries(ctx context.Context, ids []uuid.UUID) ([]domain.UserSummary, error) {
	return summaries(ctx, s.users, ids)
}

// summaries loads the public projection of ids in one round trip.
func summaries(ctx context.Context, users *mongo.Collection, ids []uuid.UUID) ([]domain.UserSummary, error) {
	if len(ids) == 0 {
		return []domain.UserSummary{}, nil
	}
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: idStrings(ids)}}}, activeOnly}
	opts := options.Find().SetProjection(bson.D{
		{Key: "name", Value: 1}, {Key: "email", Value: 1}, {Key: "photo", Value: 1}, {Key: "role", Value: 1},
	})
	cur, err := users.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError("user", "summaries", err, nil, nil)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode user summaries: %w", err)
	}

	byID := make(map[uuid.UUID]domain.UserSummary, len(docs))
	for i := range docs {
		sum, err := docs[i].summary()
		if err != nil {
			return nil, err
		}
		byID[sum.ID] = sum
	}
	out := make([]domain.UserSummary, 0, len(byID))
	for _, id := range ids {
		if sum, ok := byID[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

// Create implements store.UserStore.Create
func (s *MongoUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return domain.FieldError("password", domain.ErrEmptyHashedPassword)
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if _, err := s.users.InsertOne(ctx, fromUser(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("email already exists", slog.String("user_id", user.ID.String()))
		}
		return mapError("user", "create", err, nil, store.ErrEmailExists)
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))
	return nil
}

// Update implements store.UserStore.Update
func (s *MongoUserStore) Update(ctx context.Context, user *domain.User) error {
	d := fromUser(user)
	res, err := s.users.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return mapError("user", "update", err, nil, store.ErrEmailExists)
	}
	if res.MatchedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// Delete implements store.UserStore.Delete
// The user's reviews are removed with it.
func (s *MongoUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return mapError("user", "delete", err, nil, nil)
	}
	if res.DeletedCount == 0 {
		return store.ErrUserNotFound
	}
	if _, err := s.reviews.DeleteMany(ctx, bson.M{"user": id.String()}); err != nil {
		return mapError("user", "delete", err, nil, nil)
	}

	log.Info("user deleted", slog.String("user_id", id.String()))
	return nil
}

// DeleteAll implements store.UserStore.DeleteAll
func (s *MongoUserStore) DeleteAll(ctx context.Context) error {
	_, err := s.users.DeleteMany(ctx, bson.D{})
	return mapError("user", "deleteAll", err, nil, nil)
}

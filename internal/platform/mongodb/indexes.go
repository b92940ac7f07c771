package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexes lists the indexes each collection needs. The unique indexes
// back the duplicate errors of the stores; the 2dsphere index is required
// by $geoNear.
var indexes = map[string][]mongo.IndexModel{
	toursCollection: {
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
	},
	usersCollection: {
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "passwordResetToken", Value: 1}}, Options: options.Index().SetSparse(true)},
	},
	reviewsCollection: {
		{Keys: bson.D{{Key: "tour", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
}

// EnsureIndexes creates any missing index. Existing indexes are left alone.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	for name, models := range indexes {
		created, err := c.db.Collection(name).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
		c.logger.Debug("indexes ensured", "collection", name, "indexes", created)
	}
	return nil
}

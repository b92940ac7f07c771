package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	toursCollection   = "tours"
	usersCollection   = "users"
	reviewsCollection = "reviews"
)

const connectTimeout = 15 * time.Second

// Client owns the driver connection and the application database.
type Client struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
	logger       *slog.Logger
}

// Connect dials uri, verifies the connection and selects dbName.
// With transactions set, RunInTx uses multi-document transactions, which
// require a replica set.
func Connect(ctx context.Context, uri, dbName string, transactions bool, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "mongodb"))

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	logger.Info("mongodb connected",
		slog.String("database", dbName),
		slog.Bool("transactions", transactions))
	return &Client{
		client:       client,
		db:           client.Database(dbName),
		transactions: transactions,
		logger:       logger,
	}, nil
}

// Ping implements store.Pinger.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the server.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Database exposes the application database.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Package database opens the store implementations of the configured
// driver behind the store interfaces.
package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/platform/mongodb"
	"github.com/phrazzld/tourbook-api/internal/platform/postgres"
	"github.com/phrazzld/tourbook-api/internal/store"
)

// Backend bundles the stores of one database driver with its transactor.
type Backend struct {
	Tours   store.TourStore
	Users   store.UserStore
	Reviews store.ReviewStore
	Tx      store.Transactor
	Pinger  store.Pinger

	close func(ctx context.Context) error
}

// Close releases the driver's connections.
func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Open connects to the database selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	switch cfg.Driver {
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Backend, error) {
	db, err := postgres.Open(ctx, cfg.URL, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	log.Info("database connection established", "driver", config.DriverPostgres)

	tours := postgres.NewPostgresTourStore(db, log)
	return &Backend{
		Tours:   tours,
		Users:   postgres.NewPostgresUserStore(db, log),
		Reviews: postgres.NewPostgresReviewStore(db, tours, log),
		Tx:      db,
		Pinger:  db,
		close: func(context.Context) error {
			db.Close()
			return nil
		},
	}, nil
}

func openMongo(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Backend, error) {
	client, err := mongodb.Connect(ctx, cfg.URL, cfg.Name, cfg.MongoTransactions, log)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	log.Info("database connection established",
		"driver", config.DriverMongo,
		"transactions", cfg.MongoTransactions)

	tours := mongodb.NewMongoTourStore(client, log)
	return &Backend{
		Tours:   tours,
		Users:   mongodb.NewMongoUserStore(client, log),
		Reviews: mongodb.NewMongoReviewStore(client, tours, log),
		Tx:      client,
		Pinger:  client,
		close:   client.Close,
	}, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/platform/postgres"
)

// migrationCommands are the goose commands accepted by -migrate. create is
// left to the goose CLI since migrations are embedded in the binary.
var migrationCommands = []string{"up", "up-by-one", "up-to", "down", "down-to", "redo", "reset", "status", "version"}

var (
	errUnknownMigrationCommand = errors.New("unknown migration command")
	errMigrationsNeedPostgres  = errors.New("migrations apply to the postgres driver only")
	errMigrationVersionMissing = errors.New("-version is required")
)

// handleMigrations runs migrateCmd against the configured database. The
// mongo driver has no schema to migrate; its indexes are built at startup.
func handleMigrations(ctx context.Context, cfg *config.Config, log *slog.Logger, migrateCmd, version string) error {
	args, err := migrationArgs(cfg.Database, migrateCmd, version)
	if err != nil {
		return err
	}

	log.Info("executing migrations", "command", migrateCmd)
	if err := postgres.Migrate(ctx, cfg.Database.URL, migrateCmd, log, args...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// migrationArgs checks that migrateCmd can run against db and returns the
// extra goose arguments it takes.
func migrationArgs(db config.DatabaseConfig, migrateCmd, version string) ([]string, error) {
	if db.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("%w: driver is %q", errMigrationsNeedPostgres, db.Driver)
	}
	if !slices.Contains(migrationCommands, migrateCmd) {
		return nil, fmt.Errorf("%w: %q", errUnknownMigrationCommand, migrateCmd)
	}

	switch migrateCmd {
	case "up-to", "down-to":
		if version == "" {
			return nil, fmt.Errorf("%w for %s", errMigrationVersionMissing, migrateCmd)
		}
		return []string{version}, nil
	}
	return nil, nil
}

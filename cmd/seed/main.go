// Package main loads or removes the development data set.
//
//	seed -import [-dir dev-data]
//	seed -delete
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/platform/database"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/service/auth"
)

var errNoAction = errors.New("exactly one of -import or -delete is required")

func main() {
	doImport := flag.Bool("import", false, "Import tours, users and reviews from -dir")
	doDelete := flag.Bool("delete", false, "Delete all tours, users and reviews")
	dir := flag.String("dir", "dev-data", "Directory holding tours.json, users.json and reviews.json")
	flag.Parse()

	if err := run(*doImport, *doDelete, *dir); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(doImport, doDelete bool, dir string) error {
	if doImport == doDelete {
		return errNoAction
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := backend.Close(context.Background()); err != nil {
			log.Error("error closing database connection", "error", err)
		}
	}()

	s := &seeder{
		tours:   backend.Tours,
		users:   backend.Users,
		reviews: backend.Reviews,
		tx:      backend.Tx,
		hasher:  auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		logger:  log,
	}

	if doDelete {
		return s.Delete(ctx)
	}

	data, err := loadFixtures(os.DirFS(dir))
	if err != nil {
		return err
	}
	return s.Import(ctx, data)
}

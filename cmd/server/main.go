// Package main runs the tour booking API server. With -migrate it applies
// database migrations instead and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/tourbook-api/internal/config"
	"github.com/phrazzld/tourbook-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run a database migration command (up, up-by-one, down, redo, reset, status, version)")
	migrateVersion := flag.String("version", "", "Target version for up-to and down-to")
	flag.Parse()

	if err := run(*migrateCmd, *migrateVersion); err != nil {
		slog.Error("tourbook-api exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, then either migrates or serves until SIGINT or
// SIGTERM.
func run(migrateCmd, migrateVersion string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"database_driver", cfg.Database.Driver,
		"log_level", cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateCmd != "" {
		return handleMigrations(ctx, cfg, log, migrateCmd, migrateVersion)
	}

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}

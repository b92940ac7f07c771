//go:build integration

package testdb

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tourbook-api/internal/platform/logger"
	"github.com/phrazzld/tourbook-api/internal/platform/postgres"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 30 * time.Second

// urlEnvVars are checked in order by DatabaseURL.
var urlEnvVars = []string{"TOURBOOK_TEST_DATABASE_URL", "DATABASE_URL"}

var (
	migrateOnce sync.Once
	migrateErr  error

	errRollback = errors.New("testdb: rollback")
)

// DatabaseURL returns the first non-empty test database URL.
func DatabaseURL() string {
	for _, name := range urlEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// Open connects to the test database, migrating it on first use. The pool
// is closed when t finishes. Without a configured URL the test is skipped.
func Open(t *testing.T) *postgres.DB {
	t.Helper()

	dsn := DatabaseURL()
	if dsn == "" {
		t.Skip("TOURBOOK_TEST_DATABASE_URL not set, skipping database test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	migrateOnce.Do(func() {
		log, _ := logger.NewTestLogger()
		migrateErr = postgres.Migrate(ctx, dsn, "up", log)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	db, err := postgres.Open(ctx, dsn, 4)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(db.Close)
	return db
}

// WithTx runs fn with a context carrying a transaction that is rolled back
// afterwards, whatever fn does.
func WithTx(t *testing.T, db *postgres.DB, fn func(ctx context.Context)) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	err := db.RunInTx(ctx, func(ctx context.Context) error {
		fn(ctx)
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)
}

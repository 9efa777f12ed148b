// Package dbtest opens the integration-test database used by repository tests.
package dbtest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// EnvDSN names the variable holding a pgx5:// URL of a disposable database.
const EnvDSN = "TEST_DATABASE_DSN"

// Open connects to the database named by TEST_DATABASE_DSN, applies the
// migrations and truncates every table. The test is skipped when the
// variable is unset.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv(EnvDSN)
	if dsn == "" {
		t.Skipf("%s is not set, skipping integration test", EnvDSN)
	}

	m, err := migrate.New("file://"+migrationsPath(t), dsn)
	require.NoError(t, err, "failed to initialize migrations")
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err, "failed to apply migrations")
	}
	_, _ = m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// pgx does not understand the migrate-specific scheme.
	poolDSN := strings.Replace(dsn, "pgx5://", "postgres://", 1)
	pool, err := pgxpool.New(ctx, poolDSN)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "failed to ping test database")

	Truncate(t, pool)
	t.Cleanup(func() {
		Truncate(t, pool)
		pool.Close()
	})

	return pool
}

func Truncate(tb testing.TB, pool *pgxpool.Pool) {
	tb.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE registrations, meetups, files, users RESTART IDENTITY CASCADE")
	require.NoError(tb, err, "failed to truncate tables")
}

func migrationsPath(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "failed to get current file path")

	// internal/db/dbtest -> repository root
	rootDir := filepath.Dir(filepath.Dir(filepath.Dir(filepath.Dir(filename))))
	return filepath.Join(rootDir, "migrations")
}

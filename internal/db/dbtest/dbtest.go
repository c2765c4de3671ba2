// Package dbtest connects repository tests to a disposable Postgres database.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/appointment-booking-backend/internal/db"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

// Pool connects to TEST_DB_DSN after applying the embedded migrations once per
// test binary. The test is skipped when TEST_DB_DSN is not set.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	// Attempt to load .env from the repository root
	_ = godotenv.Load("../../.env")

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN is not set")
	}

	migrateOnce.Do(func() {
		migrateErr = db.Migrate(dsn)
	})
	require.NoError(t, migrateErr, "apply migrations")

	pool, err := db.NewPool(context.Background(), dsn, db.PoolConfig{MaxConns: 8})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// SeedBusiness inserts a business and returns its id. Every test seeds its own
// business, so tests never see each other's appointments.
func SeedBusiness(t testing.TB, pool *pgxpool.Pool, ownerID, plan, workingHours string) string {
	t.Helper()

	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO public.businesses (owner_id, name, plan_tier, working_hours)
		 VALUES ($1, 'Test business', $2, $3::jsonb) RETURNING id`,
		ownerID, plan, workingHours,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedService inserts a service of the business and returns its id.
func SeedService(t testing.TB, pool *pgxpool.Pool, businessID, name string, durationMinutes int, active bool) string {
	t.Helper()

	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO public.services (business_id, name, duration_minutes, price, is_active)
		 VALUES ($1, $2, $3, 25.50, $4) RETURNING id`,
		businessID, name, durationMinutes, active,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

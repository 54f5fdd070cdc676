// Package testutil starts throwaway PostgreSQL instances for integration tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"leadlms/internal/database"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PostgresImage is the image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// SetupTestDB starts a PostgreSQL container, applies the schema and returns
// a connected database.Service. Tests are skipped under -short.
func SetupTestDB(t *testing.T) database.Service {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("leads_test"),
		postgres.WithUsername("leads"),
		postgres.WithPassword("leads"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate postgres container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := database.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

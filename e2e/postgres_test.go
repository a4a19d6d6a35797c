package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce      sync.Once
	pgErr       error
	pgDSN       string
	pgContainer *pgcontainer.PostgresContainer
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL database shared
// by all E2E tests. The container starts on first use and is terminated by
// stopPostgres.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	pgOnce.Do(func() {
		ctx := context.Background()

		pgContainer, pgErr = pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("fsapi"),
			pgcontainer.WithUsername("fsapi"),
			pgcontainer.WithPassword("fsapi"),
			pgcontainer.BasicWaitStrategies(),
		)
		if pgErr != nil {
			return
		}

		pgDSN, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if pgErr != nil {
			return
		}

		// The server process connects on its own; this only proves the
		// database accepts connections before it is handed out.
		pool, err := pgxpool.New(ctx, pgDSN)
		if err != nil {
			pgErr = err
			return
		}
		defer pool.Close()
		pgErr = pool.Ping(ctx)
	})

	if pgErr != nil {
		t.Fatalf("postgres container: %v", pgErr)
	}
	return pgDSN
}

// stopPostgres terminates the shared container if one was started.
func stopPostgres() {
	if pgContainer != nil {
		_ = testcontainers.TerminateContainer(pgContainer)
	}
}

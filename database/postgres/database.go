package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
)

type database struct {
	pool   *pgxpool.Pool
	tables fsapi.Tables
}

// Connect establishes a connection to PostgreSQL.
func Connect(ctx context.Context, dsn string, tables fsapi.Tables) (*database, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &database{
		pool:   pool,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Migrate runs database migrations to create required tables.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.pool, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.pool, d.tables)
}

// GetRepo returns the audit event store.
func (d *database) GetRepo() audit.Store {
	return &Repo{pool: d.pool, tableName: d.tables.Audit}
}

// Close closes the database connection pool.
func (d *database) Close() error {
	d.pool.Close()
	return nil
}

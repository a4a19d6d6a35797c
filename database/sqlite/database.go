package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"

	_ "modernc.org/sqlite" // SQLite driver
)

// database provides SQLite database operations.
type database struct {
	db     *sql.DB
	tables fsapi.Tables
}

// Connect establishes a connection to SQLite.
func Connect(ctx context.Context, dsn string, tables fsapi.Tables) (*database, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	return &database{
		db:     db,
		tables: tables,
	}, nil
}

// Ping verifies the database connection is alive.
func (d *database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Migrate creates the audit table and its indexes.
func (d *database) Migrate(ctx context.Context) error {
	if err := Migrate(ctx, d.db, d.tables); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Validate checks that the database schema matches expected structure.
func (d *database) Validate(ctx context.Context) error {
	return ValidateSchema(ctx, d.db, d.tables)
}

// GetRepo returns the audit event store.
func (d *database) GetRepo() audit.Store {
	return &repo{db: d.db, tableName: d.tables.Audit}
}

// Close closes the database connection.
func (d *database) Close() error {
	return d.db.Close()
}

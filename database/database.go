package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
	"github.com/sagarc03/fsapi/database/postgres"
	"github.com/sagarc03/fsapi/database/sqlite"
)

// Config holds the configuration for connecting to an audit backend.
type Config struct {
	// Type specifies the database type: "sqlite" or "postgres"
	Type string
	// DSN is the data source name (connection string)
	DSN    string
	Tables fsapi.Tables
}

// Database is an audit storage backend.
type Database interface {
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Validate(ctx context.Context) error
	GetRepo() audit.Store
	Close() error
}

// Connect opens the configured backend. It does not migrate; call
// Migrate or Validate as the caller requires.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	var (
		db  Database
		err error
	)

	switch cfg.Type {
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects, migrates and validates the schema in one step. The
// returned Database is ready for GetRepo.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db, nil
}

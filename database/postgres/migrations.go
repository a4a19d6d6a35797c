package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/fsapi"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

func getTableMigrations(tables fsapi.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.Audit,
			Up:        createAuditTable(tables.Audit),
			Down:      dropTable(tables.Audit),
		},
	}
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, tables fsapi.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, tables fsapi.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createAuditTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		indexOccurredAt := pgx.Identifier{fmt.Sprintf("idx_%s_occurred_at", tableName)}.Sanitize()
		indexUID := pgx.Identifier{fmt.Sprintf("idx_%s_uid", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				event TEXT NOT NULL,
				action TEXT NOT NULL,
				uid TEXT NOT NULL,
				reason TEXT,
				remote TEXT
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (occurred_at);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (uid, occurred_at);
		`,
			quotedTable,
			indexOccurredAt, quotedTable,
			indexUID, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create audit table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}

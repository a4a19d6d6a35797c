package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/fsapi"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
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

func Migrate(ctx context.Context, db *sql.DB, tables fsapi.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables fsapi.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createAuditTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexOccurredAt := quoteIdentifier(fmt.Sprintf("idx_%s_occurred_at", tableName))
		indexUID := quoteIdentifier(fmt.Sprintf("idx_%s_uid", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				occurred_at TEXT NOT NULL,
				event TEXT NOT NULL,
				action TEXT NOT NULL,
				uid TEXT NOT NULL,
				reason TEXT,
				remote TEXT
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (occurred_at)
		`, indexOccurredAt, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index occurred_at: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (uid, occurred_at)
		`, indexUID, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index uid: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdentifier(tableName))
		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}

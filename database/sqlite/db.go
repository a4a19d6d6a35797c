package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/database/internal/schema"
)

// SQLite reports declared types, so these match the CREATE TABLE statement.
var auditColumns = schema.Table{
	"id":          {Type: "text"},
	"occurred_at": {Type: "text"},
	"event":       {Type: "text"},
	"action":      {Type: "text"},
	"uid":         {Type: "text"},
	"reason":      {Type: "text", Nullable: true},
	"remote":      {Type: "text", Nullable: true},
}

// ValidateSchema checks that the audit table exists with the expected columns.
func ValidateSchema(ctx context.Context, db *sql.DB, tables fsapi.Tables) error {
	if !fsapi.IsValidTableName(tables.Audit) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Audit)
	}

	actual, err := readColumns(ctx, db, tables.Audit)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return schema.Diff(tables.Audit, auditColumns, actual)
}

// readColumns returns nil for a missing table.
func readColumns(ctx context.Context, db *sql.DB, table string) (schema.Table, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, type, "notnull" FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols schema.Table
	for rows.Next() {
		var name, typ string
		var notNull int
		if err := rows.Scan(&name, &typ, &notNull); err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", table, err)
		}
		if cols == nil {
			cols = schema.Table{}
		}
		cols[name] = schema.Column{Type: strings.ToLower(typ), Nullable: notNull == 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	return cols, nil
}

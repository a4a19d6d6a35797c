package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/database/internal/schema"
)

// Types as information_schema.columns.data_type reports them.
var auditColumns = schema.Table{
	"id":          {Type: "uuid"},
	"occurred_at": {Type: "timestamp with time zone"},
	"event":       {Type: "text"},
	"action":      {Type: "text"},
	"uid":         {Type: "text"},
	"reason":      {Type: "text", Nullable: true},
	"remote":      {Type: "text", Nullable: true},
}

// ValidateSchema checks that the audit table exists in the current schema
// with the expected columns.
func ValidateSchema(ctx context.Context, pool *pgxpool.Pool, tables fsapi.Tables) error {
	if !fsapi.IsValidTableName(tables.Audit) {
		return fmt.Errorf("validate schema: invalid table name: %s", tables.Audit)
	}

	actual, err := readColumns(ctx, pool, tables.Audit)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	return schema.Diff(tables.Audit, auditColumns, actual)
}

// readColumns returns nil for a missing table.
func readColumns(ctx context.Context, pool *pgxpool.Pool, table string) (schema.Table, error) {
	rows, err := pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
	`, table)
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}

	var (
		cols     schema.Table
		name     string
		typ      string
		nullable bool
	)
	_, err = pgx.ForEachRow(rows, []any{&name, &typ, &nullable}, func() error {
		if cols == nil {
			cols = schema.Table{}
		}
		cols[name] = schema.Column{Type: strings.ToLower(typ), Nullable: nullable}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read columns of %s: %w", table, err)
	}
	return cols, nil
}

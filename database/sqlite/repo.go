// Package sqlite stores audit events in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/fsapi/audit"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type repo struct {
	db        *sql.DB
	tableName string
}

func (r *repo) Insert(ctx context.Context, e audit.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, occurred_at, event, action, uid, reason, remote)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(r.tableName))

	_, err := r.db.ExecContext(ctx, query,
		e.ID.String(), e.Time.UTC().Format(timeLayout), e.Event, e.Action, e.Identity,
		nullString(e.Reason), nullString(e.Remote),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (r *repo) List(ctx context.Context, q audit.ListQuery) ([]audit.Event, error) {
	if q.Limit <= 0 {
		q.Limit = audit.DefaultListLimit
	}

	var conds []string
	var args []any
	if q.Identity != "" {
		conds = append(conds, "uid = ?")
		args = append(args, q.Identity)
	}
	if q.Event != "" {
		conds = append(conds, "event = ?")
		args = append(args, q.Event)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated, conditions are fixed strings
		`SELECT id, occurred_at, event, action, uid, reason, remote
		FROM %s
		%s
		ORDER BY occurred_at DESC, id
		LIMIT ?`, quoteIdentifier(r.tableName), where)
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]audit.Event, 0, q.Limit)
	for rows.Next() {
		var e audit.Event
		var idStr, occurredAt string
		var reason, remote sql.NullString

		if scanErr := rows.Scan(&idStr, &occurredAt, &e.Event, &e.Action, &e.Identity, &reason, &remote); scanErr != nil {
			return nil, fmt.Errorf("list: scan: %w", scanErr)
		}

		var parseErr error
		e.ID, parseErr = uuid.Parse(idStr)
		if parseErr != nil {
			return nil, fmt.Errorf("list: parse uuid: %w", parseErr)
		}

		e.Time, parseErr = time.Parse(timeLayout, occurredAt)
		if parseErr != nil {
			return nil, fmt.Errorf("list: parse occurred_at: %w", parseErr)
		}

		e.Reason = reason.String
		e.Remote = remote.String
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Package postgres stores audit events in PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
)

type Repo struct {
	pool      *pgxpool.Pool
	tableName string
}

func NewRepo(pool *pgxpool.Pool, tables fsapi.Tables) (*Repo, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("new repo: %w", err)
	}

	return &Repo{pool: pool, tableName: tables.Audit}, nil
}

// Ping verifies database connectivity
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repo) Insert(ctx context.Context, e audit.Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, occurred_at, event, action, uid, reason, remote)
		VALUES ($1, COALESCE($2, NOW()), $3, $4, $5, $6, $7)
	`, pgx.Identifier{r.tableName}.Sanitize())

	occurredAt := pgtype.Timestamptz{Time: e.Time, Valid: !e.Time.IsZero()}

	_, err := r.pool.Exec(ctx, query,
		e.ID, occurredAt, e.Event, e.Action, e.Identity, nullText(e.Reason), nullText(e.Remote),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (r *Repo) List(ctx context.Context, q audit.ListQuery) ([]audit.Event, error) {
	if q.Limit <= 0 {
		q.Limit = audit.DefaultListLimit
	}

	var conds []string
	var args []any
	if q.Identity != "" {
		args = append(args, q.Identity)
		conds = append(conds, fmt.Sprintf("uid = $%d", len(args)))
	}
	if q.Event != "" {
		args = append(args, q.Event)
		conds = append(conds, fmt.Sprintf("event = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	args = append(args, q.Limit)
	query := fmt.Sprintf(`
		SELECT id, occurred_at, event, action, uid, reason, remote
		FROM %s
		%s
		ORDER BY occurred_at DESC, id
		LIMIT $%d
	`, pgx.Identifier{r.tableName}.Sanitize(), where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	events := make([]audit.Event, 0, q.Limit)
	for rows.Next() {
		var e audit.Event
		var reason, remote pgtype.Text

		if err := rows.Scan(&e.ID, &e.Time, &e.Event, &e.Action, &e.Identity, &reason, &remote); err != nil {
			return nil, fmt.Errorf("list: scan: %w", err)
		}
		e.Time = e.Time.UTC()
		e.Reason = reason.String
		e.Remote = remote.String
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return events, nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

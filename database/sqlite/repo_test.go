package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
	"github.com/sagarc03/fsapi/database/internal/schema"
	"github.com/sagarc03/fsapi/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo_InsertAndList(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	events := []audit.Event{
		{ID: uuid.New(), Time: base, Event: audit.EventAuthSuccess, Action: "/ls", Identity: "alice", Remote: "10.0.0.1:1000"},
		{ID: uuid.New(), Time: base.Add(500 * time.Millisecond), Event: audit.EventAuthFailure, Action: "/zfs", Identity: "alice", Reason: "expired"},
		{ID: uuid.New(), Time: base.Add(2 * time.Second), Event: audit.EventAuthFailure, Action: "/ls", Identity: "mallory", Reason: "unknown_user"},
	}
	for _, e := range events {
		require.NoError(t, repo.Insert(ctx, e))
	}

	got, err := repo.List(ctx, audit.ListQuery{})
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, events[2], got[0])
	assert.Equal(t, events[1], got[1])
	assert.Equal(t, events[0], got[2])
}

func TestRepo_ListFilters(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, e := range []audit.Event{
		{Event: audit.EventAuthSuccess, Action: "/ls", Identity: "alice"},
		{Event: audit.EventAuthFailure, Action: "/ls", Identity: "alice", Reason: "signature_mismatch"},
		{Event: audit.EventAuthSuccess, Action: "/lod", Identity: "bob"},
		{Event: audit.EventNoRoot, Action: "/lof", Identity: "carol"},
	} {
		e.Time = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Insert(ctx, e))
	}

	tests := []struct {
		name  string
		query audit.ListQuery
		want  int
	}{
		{name: "all", query: audit.ListQuery{}, want: 4},
		{name: "identity", query: audit.ListQuery{Identity: "alice"}, want: 2},
		{name: "event", query: audit.ListQuery{Event: audit.EventAuthSuccess}, want: 2},
		{name: "identity and event", query: audit.ListQuery{Identity: "alice", Event: audit.EventAuthFailure}, want: 1},
		{name: "limit", query: audit.ListQuery{Limit: 3}, want: 3},
		{name: "no match", query: audit.ListQuery{Identity: "dave"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRepo_InsertFillsDefaults(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, audit.Event{Event: audit.EventAuthSuccess, Action: "/", Identity: "alice"}))

	got, err := repo.List(ctx, audit.ListQuery{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotEqual(t, uuid.Nil, got[0].ID)
	assert.WithinDuration(t, time.Now(), got[0].Time, time.Minute)
	assert.Empty(t, got[0].Reason)
}

func TestRepo_DuplicateID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	e := audit.Event{ID: uuid.New(), Event: audit.EventAuthSuccess, Action: "/ls", Identity: "alice"}
	require.NoError(t, repo.Insert(ctx, e))
	assert.Error(t, repo.Insert(ctx, e))
}

func TestDatabase_ValidateAndDrop(t *testing.T) {
	ctx := context.Background()
	tables := fsapi.Tables{Audit: "audit_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.ErrorIs(t, db.Validate(ctx), schema.ErrMismatch, "validate should fail before migration")

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrate should be idempotent")
	assert.NoError(t, db.Validate(ctx))
}

func TestValidateSchema_WrongShape(t *testing.T) {
	ctx := context.Background()
	table := "audit_" + getRandomString(t)

	conn, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	defer func() { _ = conn.Close() }()

	_, err = conn.ExecContext(ctx, `CREATE TABLE `+table+` (id INTEGER, occurred_at TEXT NOT NULL, event TEXT NOT NULL)`)
	require.NoError(t, err)

	err = sqlite.ValidateSchema(ctx, conn, fsapi.Tables{Audit: table})
	require.ErrorIs(t, err, schema.ErrMismatch)
	assert.Contains(t, err.Error(), "id: type integer, want text")
	assert.Contains(t, err.Error(), "uid: missing")
}

func TestConnect_InvalidTableName(t *testing.T) {
	_, err := sqlite.Connect(context.Background(), ":memory:", fsapi.Tables{Audit: "Robert'); DROP TABLE"})
	assert.Error(t, err)
}

package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/audit"
	"github.com/sagarc03/fsapi/database/sqlite"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	require.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a migrated in-memory store with a unique table name.
func setupTestRepo(t *testing.T) audit.Store {
	t.Helper()

	ctx := context.Background()
	tables := fsapi.Tables{Audit: "audit_" + getRandomString(t)}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate")

	return db.GetRepo()
}

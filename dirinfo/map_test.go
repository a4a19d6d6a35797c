package dirinfo_test

import (
	"context"
	"testing"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/dirinfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_GetRoot(t *testing.T) {
	m := dirinfo.NewMap("/srv/homes", "alice", "bob")

	got, err := m.GetRoot(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, fsapi.RootInfo{Exists: true, Root: "/srv/homes"}, got)

	got, err = m.GetRoot(context.Background(), "mallory")
	require.NoError(t, err)
	assert.False(t, got.Exists)
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dirinfo.NewMap("/srv", "alice").GetRoot(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
}

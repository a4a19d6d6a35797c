package fsapi_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sagarc03/fsapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDirectoryInfo is a mock implementation of fsapi.DirectoryInfo
type MockDirectoryInfo struct {
	mock.Mock
}

func (m *MockDirectoryInfo) GetRoot(ctx context.Context, user string) (fsapi.RootInfo, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(fsapi.RootInfo), args.Error(1)
}

func TestStaticRoot_ResolveRoot(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(home, "alice"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(home, "carol"), []byte("not a dir"), 0o600))

	resolver, err := fsapi.NewRootResolver(fsapi.RootConfig{HomeRoot: home}, nil)
	require.NoError(t, err)

	tests := []struct {
		identity string
		want     fsapi.RootInfo
	}{
		{identity: "alice", want: fsapi.RootInfo{Exists: true, Root: home}},
		{identity: "bob", want: fsapi.RootInfo{Exists: false, Root: home}},
		{identity: "carol", want: fsapi.RootInfo{Exists: false, Root: home}},
	}

	for _, tt := range tests {
		t.Run(tt.identity, func(t *testing.T) {
			got, err := resolver.ResolveRoot(context.Background(), tt.identity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStaticRoot_RejectsUnsafeIdentity(t *testing.T) {
	resolver, err := fsapi.NewStaticRoot(t.TempDir())
	require.NoError(t, err)

	for _, identity := range []string{"", ".", "..", "../etc", "a/b", `a\b`, "with space"} {
		_, err := resolver.ResolveRoot(context.Background(), identity)
		assert.ErrorIs(t, err, fsapi.ErrInvalidInput, "identity %q", identity)
	}
}

func TestNewStaticRoot_Errors(t *testing.T) {
	_, err := fsapi.NewStaticRoot("")
	assert.ErrorIs(t, err, fsapi.ErrInvalidInput)

	_, err = fsapi.NewStaticRoot(fsapi.InvalidPath())
	assert.ErrorIs(t, err, fsapi.ErrInvalidInput)

	_, err = fsapi.NewStaticRoot(filepath.Join(fsapi.InvalidPath(), "nested"))
	assert.ErrorIs(t, err, fsapi.ErrInvalidInput)
}

func TestStaticRoot_RelativeHomeRootIsMadeAbsolute(t *testing.T) {
	resolver, err := fsapi.NewStaticRoot("data")
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(resolver.Root()))
}

func TestDynamicRoot_ResolveRoot(t *testing.T) {
	dir := new(MockDirectoryInfo)
	dir.On("GetRoot", mock.Anything, "alice").Return(fsapi.RootInfo{Exists: true, Root: "/home/a/"}, nil)
	dir.On("GetRoot", mock.Anything, "bob").Return(fsapi.RootInfo{Exists: false, Root: "/home/b"}, nil)
	dir.On("GetRoot", mock.Anything, "dave").Return(fsapi.RootInfo{Exists: false}, nil)

	resolver, err := fsapi.NewRootResolver(fsapi.RootConfig{DynamicRoot: true, HomeRoot: "/ignored"}, dir)
	require.NoError(t, err)

	got, err := resolver.ResolveRoot(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, fsapi.RootInfo{Exists: true, Root: "/home/a"}, got)

	got, err = resolver.ResolveRoot(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, fsapi.RootInfo{Exists: false, Root: "/home/b"}, got)

	got, err = resolver.ResolveRoot(context.Background(), "dave")
	require.NoError(t, err)
	assert.Equal(t, fsapi.RootInfo{Exists: false}, got)

	dir.AssertExpectations(t)
}

func TestDynamicRoot_Failures(t *testing.T) {
	tests := []struct {
		name  string
		info  fsapi.RootInfo
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "service error",
			err:  errors.New("directory offline"),
		},
		{
			name: "empty root",
			info: fsapi.RootInfo{Exists: true},
		},
		{
			name: "relative root",
			info: fsapi.RootInfo{Exists: true, Root: "home/alice"},
		},
		{
			name: "invalid path sentinel",
			info: fsapi.RootInfo{Exists: true, Root: fsapi.InvalidPath()},
		},
		{
			name: "inside invalid path",
			info: fsapi.RootInfo{Exists: true, Root: fsapi.InvalidPath() + "/x/.."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := new(MockDirectoryInfo)
			dir.On("GetRoot", mock.Anything, "alice").Return(tt.info, tt.err)

			_, err := fsapi.NewDynamicRoot(dir).ResolveRoot(context.Background(), "alice")
			assert.ErrorIs(t, err, fsapi.ErrRootResolutionFailed)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestNewRootResolver_DynamicWithoutService(t *testing.T) {
	_, err := fsapi.NewRootResolver(fsapi.RootConfig{DynamicRoot: true}, nil)
	assert.Error(t, err)
}

func TestInvalidPath_DisjointFromResolvedRoots(t *testing.T) {
	invalid := fsapi.InvalidPath()
	assert.True(t, filepath.IsAbs(invalid))
	assert.Equal(t, "invalid_path", filepath.Base(invalid))

	home := t.TempDir()
	static, err := fsapi.NewStaticRoot(home)
	require.NoError(t, err)
	assert.Equal(t, invalid, static.InvalidPath())

	for _, identity := range []string{"alice", "bob", "invalid_path"} {
		info, err := static.ResolveRoot(context.Background(), identity)
		require.NoError(t, err)
		assert.NotEqual(t, invalid, info.Root)
	}

	dir := new(MockDirectoryInfo)
	dir.On("GetRoot", mock.Anything, mock.Anything).Return(fsapi.RootInfo{Exists: true, Root: invalid}, nil)
	dynamic := fsapi.NewDynamicRoot(dir)
	assert.Equal(t, invalid, dynamic.InvalidPath())

	info, err := dynamic.ResolveRoot(context.Background(), "alice")
	assert.Error(t, err)
	assert.NotEqual(t, invalid, info.Root)
}

package filesystem_test

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/sagarc03/fsapi"
	"github.com/sagarc03/fsapi/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newUserTree creates <home>/alice with a small tree and returns home.
func newUserTree(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	user := filepath.Join(home, "alice")
	require.NoError(t, os.MkdirAll(filepath.Join(user, "docs", "drafts"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(user, "photos"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(user, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(user, "docs", "report.md"), []byte("# report"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(user, "docs", "drafts", "v1.md"), []byte("draft"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(home, "secret.txt"), []byte("not yours"), 0o644))
	return home
}

func openStore(t *testing.T, home string, opts ...filesystem.Option) *filesystem.Store {
	t.Helper()

	store, err := filesystem.Open(home, "alice", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func names(entries []fsapi.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestOpen(t *testing.T) {
	home := newUserTree(t)

	_, err := filesystem.Open(home, "bob")
	assert.ErrorIs(t, err, fsapi.ErrNotFound)

	_, err = filesystem.Open(home, "../alice")
	assert.ErrorIs(t, err, fsapi.ErrInvalidInput)

	store, err := filesystem.Open(home, "alice")
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestStore_Listings(t *testing.T) {
	store := openStore(t, newUserTree(t))
	ctx := context.Background()

	tests := []struct {
		name string
		list func(context.Context, string) ([]fsapi.Entry, error)
		dir  string
		want []string
	}{
		{name: "ls top", list: store.List, dir: "", want: []string{"docs", "notes.txt", "photos"}},
		{name: "ls dot", list: store.List, dir: ".", want: []string{"docs", "notes.txt", "photos"}},
		{name: "ls nested", list: store.List, dir: "docs", want: []string{"drafts", "report.md"}},
		{name: "lof top", list: store.ListFiles, dir: "", want: []string{"notes.txt"}},
		{name: "lof nested", list: store.ListFiles, dir: "docs/drafts", want: []string{"v1.md"}},
		{name: "lod top", list: store.ListDirs, dir: "", want: []string{"docs", "photos"}},
		{name: "lod empty", list: store.ListDirs, dir: "photos", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.list(ctx, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestStore_List_EntryMetadata(t *testing.T) {
	store := openStore(t, newUserTree(t))

	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)

	byName := map[string]fsapi.Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}

	assert.False(t, byName["notes.txt"].IsDir)
	assert.Equal(t, int64(5), byName["notes.txt"].Size)
	assert.False(t, byName["notes.txt"].ModTime.IsZero())
	assert.True(t, byName["docs"].IsDir)
	assert.Zero(t, byName["docs"].Size)
}

func TestStore_List_Errors(t *testing.T) {
	store := openStore(t, newUserTree(t))

	tests := []struct {
		dir     string
		wantErr error
	}{
		{dir: "missing", wantErr: fsapi.ErrNotFound},
		{dir: "notes.txt", wantErr: fsapi.ErrInvalidInput},
		{dir: "..", wantErr: fsapi.ErrInvalidInput},
		{dir: "../alice", wantErr: fsapi.ErrInvalidInput},
		{dir: "/etc", wantErr: fsapi.ErrInvalidInput},
		{dir: "docs/../..", wantErr: fsapi.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			_, err := store.List(context.Background(), tt.dir)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStore_List_SymlinkEscape(t *testing.T) {
	home := newUserTree(t)
	if err := os.Symlink(home, filepath.Join(home, "alice", "up")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	store := openStore(t, home)

	_, err := store.List(context.Background(), "up")
	assert.Error(t, err)
}

func TestStore_ContextCanceled(t *testing.T) {
	store := openStore(t, newUserTree(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)

	err = store.ZipDir(ctx, "", io.Discard)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Unzip(ctx, "", bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	out := map[string]string{}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			out[f.Name] = ""
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestStore_ZipDir(t *testing.T) {
	store := openStore(t, newUserTree(t))

	var buf bytes.Buffer
	require.NoError(t, store.ZipDir(context.Background(), "docs", &buf))

	assert.Equal(t, map[string]string{
		"drafts/":      "",
		"drafts/v1.md": "draft",
		"report.md":    "# report",
	}, readArchive(t, buf.Bytes()))
}

func TestStore_ZipDir_Top(t *testing.T) {
	store := openStore(t, newUserTree(t))

	var buf bytes.Buffer
	require.NoError(t, store.ZipDir(context.Background(), "", &buf))

	got := readArchive(t, buf.Bytes())
	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assert.Equal(t, []string{"docs/", "docs/drafts/", "docs/drafts/v1.md", "docs/report.md", "notes.txt", "photos/"}, keys)
	assert.NotContains(t, got, "secret.txt")
}

func TestStore_ZipDir_Errors(t *testing.T) {
	store := openStore(t, newUserTree(t))

	assert.ErrorIs(t, store.ZipDir(context.Background(), "missing", io.Discard), fsapi.ErrNotFound)
	assert.ErrorIs(t, store.ZipDir(context.Background(), "notes.txt", io.Discard), fsapi.ErrInvalidInput)
	assert.ErrorIs(t, store.ZipDir(context.Background(), "../", io.Discard), fsapi.ErrInvalidInput)
}

type archiveEntry struct {
	name string
	body string
}

func buildArchive(t *testing.T, entries ...archiveEntry) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestStore_Unzip(t *testing.T) {
	home := newUserTree(t)
	store := openStore(t, home)

	archive := buildArchive(t,
		archiveEntry{name: "upload/"},
		archiveEntry{name: "upload/a.txt", body: "alpha"},
		archiveEntry{name: "upload/deep/b.txt", body: "beta"},
	)

	n, err := store.Unzip(context.Background(), "incoming", archive, archive.Size())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	b, err := os.ReadFile(filepath.Join(home, "alice", "incoming", "upload", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(b))

	b, err = os.ReadFile(filepath.Join(home, "alice", "incoming", "upload", "deep", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "beta", string(b))

	// No temp files left behind.
	entries, err := store.List(context.Background(), "")
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name, ".t"), e.Name)
	}
}

func TestStore_Unzip_RoundTrip(t *testing.T) {
	home := newUserTree(t)
	store := openStore(t, home)

	var buf bytes.Buffer
	require.NoError(t, store.ZipDir(context.Background(), "docs", &buf))

	r := bytes.NewReader(buf.Bytes())
	n, err := store.Unzip(context.Background(), "copy", r, r.Size())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := store.ListFiles(context.Background(), "copy/drafts")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.md"}, names(got))
}

func TestStore_Unzip_RejectsEscapes(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{name: "parent", entry: "../evil.txt"},
		{name: "nested parent", entry: "a/../../evil.txt"},
		{name: "absolute", entry: "/tmp/evil.txt"},
		{name: "backslash", entry: `..\evil.txt`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := newUserTree(t)
			store := openStore(t, home)

			archive := buildArchive(t,
				archiveEntry{name: "ok.txt", body: "fine"},
				archiveEntry{name: tt.entry, body: "evil"},
			)

			n, err := store.Unzip(context.Background(), "", archive, archive.Size())
			assert.ErrorIs(t, err, fsapi.ErrInvalidInput)
			assert.Zero(t, n)

			// Nothing is written when any entry is rejected.
			_, statErr := os.Stat(filepath.Join(home, "alice", "ok.txt"))
			assert.True(t, os.IsNotExist(statErr))
			_, statErr = os.Stat(filepath.Join(home, "evil.txt"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestStore_Unzip_SizeLimit(t *testing.T) {
	store := openStore(t, newUserTree(t), filesystem.WithMaxExtractBytes(8))

	archive := buildArchive(t, archiveEntry{name: "big.txt", body: strings.Repeat("x", 64)})

	_, err := store.Unzip(context.Background(), "", archive, archive.Size())
	assert.ErrorIs(t, err, fsapi.ErrInvalidInput)
}

func TestStore_Unzip_NotAnArchive(t *testing.T) {
	store := openStore(t, newUserTree(t))

	r := bytes.NewReader([]byte("definitely not a zip"))
	_, err := store.Unzip(context.Background(), "", r, r.Size())
	assert.ErrorIs(t, err, fsapi.ErrInvalidInput)
}

func TestStore_Write(t *testing.T) {
	home := newUserTree(t)
	store := openStore(t, home)

	n, err := store.Write(context.Background(), "a/b/c.txt", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	b, err := os.ReadFile(filepath.Join(home, "alice", "a", "b", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(b))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestStore_Write_CleansUpOnFailure(t *testing.T) {
	home := newUserTree(t)
	store := openStore(t, home)

	_, err := store.Write(context.Background(), "broken.txt", failingReader{})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(home, "alice"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".t"), e.Name())
		assert.NotEqual(t, "broken.txt", e.Name())
	}
}

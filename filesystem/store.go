// Package filesystem implements the file operations exposed to
// authenticated users. Every Store is confined to a single user directory
// through os.Root, so no payload path can reach outside it.
package filesystem

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/fsapi"
)

// DefaultMaxExtractBytes caps the uncompressed size of an uploaded archive.
const DefaultMaxExtractBytes int64 = 1 << 30

// Store provides file operations inside one user directory.
type Store struct {
	root            *os.Root
	maxExtractBytes int64
}

// Option configures a Store.
type Option func(*Store)

// WithMaxExtractBytes sets the uncompressed size limit for Unzip.
func WithMaxExtractBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxExtractBytes = n
		}
	}
}

// NewFileStorage creates a Store on an already opened root.
func NewFileStorage(root *os.Root, opts ...Option) *Store {
	s := &Store{root: root, maxExtractBytes: DefaultMaxExtractBytes}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens the directory of identity under root. It returns
// fsapi.ErrNotFound when that directory does not exist.
func Open(root, identity string, opts ...Option) (*Store, error) {
	if !fsapi.IsValidIdentity(identity) {
		return nil, fmt.Errorf("open store: invalid identity %q: %w", identity, fsapi.ErrInvalidInput)
	}

	r, err := os.OpenRoot(filepath.Join(root, identity))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open store: %w", fsapi.ErrNotFound)
		}
		return nil, fmt.Errorf("open store: %w", err)
	}
	return NewFileStorage(r, opts...), nil
}

// Close releases the underlying root.
func (s *Store) Close() error {
	return s.root.Close()
}

// List returns the entries of dir sorted by name. An empty dir is the
// user directory itself.
func (s *Store) List(ctx context.Context, dir string) ([]fsapi.Entry, error) {
	return s.list(ctx, dir, func(fs.DirEntry) bool { return true })
}

// ListFiles returns the non-directory entries of dir.
func (s *Store) ListFiles(ctx context.Context, dir string) ([]fsapi.Entry, error) {
	return s.list(ctx, dir, func(e fs.DirEntry) bool { return !e.IsDir() })
}

// ListDirs returns the subdirectories of dir.
func (s *Store) ListDirs(ctx context.Context, dir string) ([]fsapi.Entry, error) {
	return s.list(ctx, dir, func(e fs.DirEntry) bool { return e.IsDir() })
}

func (s *Store) list(ctx context.Context, dir string, keep func(fs.DirEntry) bool) ([]fsapi.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := cleanDir(dir)
	if err != nil {
		return nil, err
	}

	if err := s.checkDir("list", dir); err != nil {
		return nil, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return nil, mapFSError("list", err)
	}

	entries := make([]fsapi.Entry, 0, len(dirEntries))
	for _, e := range dirEntries {
		if !keep(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("list: %w", err)
		}
		entries = append(entries, fsapi.Entry{
			Name:    e.Name(),
			IsDir:   e.IsDir(),
			Size:    sizeOf(info),
			ModTime: info.ModTime().UTC(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// ZipDir writes a zip archive of dir to w. Paths inside the archive are
// relative to dir. Symlinks and other special files are skipped.
func (s *Store) ZipDir(ctx context.Context, dir string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := cleanDir(dir)
	if err != nil {
		return err
	}

	if err := s.checkDir("zip", dir); err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	walkErr := fs.WalkDir(s.root.FS(), dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == dir {
			return nil
		}

		name := p
		if dir != "." {
			name = p[len(dir)+1:]
		}

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		return s.addFile(zw, p, name, fi)
	})
	if walkErr != nil {
		_ = zw.Close()
		return fmt.Errorf("zip: %w", walkErr)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("zip: finish archive: %w", err)
	}
	return nil
}

func (s *Store) addFile(zw *zip.Writer, p, name string, fi fs.FileInfo) error {
	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	dst, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	f, err := s.root.Open(p)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", p, "err", closeErr)
		}
	}()

	_, err = io.Copy(dst, f)
	return err
}

// Unzip extracts the archive in r (of the given size) into dir, creating
// dir when missing. Entries whose names are absolute or climb out of dir
// are rejected before anything is written. It returns the number of files
// extracted.
func (s *Store) Unzip(ctx context.Context, dir string, r io.ReaderAt, size int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir, err := cleanDir(dir)
	if err != nil {
		return 0, err
	}

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return 0, fmt.Errorf("unzip: %w: %w", err, fsapi.ErrInvalidInput)
	}

	var total uint64
	for _, f := range zr.File {
		if !filepath.IsLocal(f.Name) || strings.Contains(f.Name, `\`) {
			return 0, fmt.Errorf("unzip: entry %q escapes the target directory: %w", f.Name, fsapi.ErrInvalidInput)
		}
		total += f.UncompressedSize64
	}
	if total > uint64(s.maxExtractBytes) { //nolint:gosec // maxExtractBytes is always positive
		return 0, fmt.Errorf("unzip: archive expands to %d bytes: %w", total, fsapi.ErrInvalidInput)
	}

	if dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("unzip: create directory: %w", err)
		}
	}

	extracted := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return extracted, err
		}

		target := path.Join(dir, path.Clean(f.Name))

		if f.FileInfo().IsDir() {
			if err := s.root.MkdirAll(target, 0o755); err != nil {
				return extracted, fmt.Errorf("unzip: create directory %s: %w", f.Name, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		if err := s.extract(ctx, f, target); err != nil {
			return extracted, fmt.Errorf("unzip: %s: %w", f.Name, err)
		}
		extracted++
	}

	return extracted, nil
}

func (s *Store) extract(ctx context.Context, f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	// The header size is attacker controlled; never copy more than it claims.
	limited := io.LimitReader(rc, int64(f.UncompressedSize64)) //nolint:gosec // bounded by maxExtractBytes
	_, err = s.Write(ctx, target, limited)
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Write atomically writes content to p using a temp file and rename,
// creating intermediate directories. It returns the number of bytes written.
func (s *Store) Write(ctx context.Context, p string, content io.Reader) (int64, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return 0, fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	n, err := io.Copy(t, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return 0, fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return 0, fmt.Errorf("could not sync written file: %w", err)
	}

	if destDir := path.Dir(p); destDir != "." {
		if err := s.root.MkdirAll(destDir, 0o755); err != nil {
			return 0, fmt.Errorf("could not create intermediate directories: %w", err)
		}
	}

	if renameErr := s.root.Rename(tmpFile, p); renameErr != nil {
		return 0, fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true
	return n, nil
}

// cleanDir validates a payload directory and returns it in os.Root form.
func cleanDir(dir string) (string, error) {
	if !fsapi.IsValidPath(dir) {
		return "", fmt.Errorf("invalid path %q: %w", dir, fsapi.ErrInvalidInput)
	}
	if dir == "" {
		return ".", nil
	}
	return path.Clean(dir), nil
}

func (s *Store) checkDir(op, dir string) error {
	info, err := s.root.Stat(dir)
	if err != nil {
		return mapFSError(op, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %s is not a directory: %w", op, dir, fsapi.ErrInvalidInput)
	}
	return nil
}

func mapFSError(op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, fsapi.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func sizeOf(info fs.FileInfo) int64 {
	if info.IsDir() {
		return 0
	}
	return info.Size()
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}

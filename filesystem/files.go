package filesystem

import (
	"context"
	"io"

	"github.com/sagarc03/fsapi"
)

// Files implements fsapi.FileOps by opening a Store on the scope's
// directory for each call.
type Files struct {
	opts []Option
}

var _ fsapi.FileOps = (*Files)(nil)

// NewFiles creates Files. The options apply to every Store it opens.
func NewFiles(opts ...Option) *Files {
	return &Files{opts: opts}
}

func (f *Files) List(ctx context.Context, scope fsapi.Scope, dir string) ([]fsapi.Entry, error) {
	return withStore(f, scope, func(s *Store) ([]fsapi.Entry, error) { return s.List(ctx, dir) })
}

func (f *Files) ListFiles(ctx context.Context, scope fsapi.Scope, dir string) ([]fsapi.Entry, error) {
	return withStore(f, scope, func(s *Store) ([]fsapi.Entry, error) { return s.ListFiles(ctx, dir) })
}

func (f *Files) ListDirs(ctx context.Context, scope fsapi.Scope, dir string) ([]fsapi.Entry, error) {
	return withStore(f, scope, func(s *Store) ([]fsapi.Entry, error) { return s.ListDirs(ctx, dir) })
}

func (f *Files) ZipDir(ctx context.Context, scope fsapi.Scope, dir string, w io.Writer) error {
	_, err := withStore(f, scope, func(s *Store) (struct{}, error) { return struct{}{}, s.ZipDir(ctx, dir, w) })
	return err
}

func (f *Files) Unzip(ctx context.Context, scope fsapi.Scope, dir string, r io.ReaderAt, size int64) (int, error) {
	return withStore(f, scope, func(s *Store) (int, error) { return s.Unzip(ctx, dir, r, size) })
}

func withStore[T any](f *Files, scope fsapi.Scope, fn func(*Store) (T, error)) (T, error) {
	var zero T

	s, err := Open(scope.Root, scope.Identity, f.opts...)
	if err != nil {
		return zero, err
	}
	defer func() { _ = s.Close() }()

	return fn(s)
}

package fsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// FileOps defines the file operations available to an authenticated caller.
// Implementations must confine every operation to scope.Dir() and treat dir
// as a path relative to it ("" is the directory itself).
//
// All methods accept a context for cancellation and timeout control.
type FileOps interface {
	// List returns every entry of dir, directories and files alike.
	//
	// Returns:
	//   - ErrNotFound if dir does not exist
	//   - ErrInvalidInput if dir is not a valid relative path or not a directory
	List(ctx context.Context, scope Scope, dir string) ([]Entry, error)

	// ListFiles returns the non-directory entries of dir.
	ListFiles(ctx context.Context, scope Scope, dir string) ([]Entry, error)

	// ListDirs returns the subdirectories of dir.
	ListDirs(ctx context.Context, scope Scope, dir string) ([]Entry, error)

	// ZipDir writes a zip archive of dir to w.
	//
	// Nothing is written to w when dir cannot be opened, so callers may still
	// send an error response in that case.
	ZipDir(ctx context.Context, scope Scope, dir string, w io.Writer) error

	// Unzip extracts the archive read from r into dir and returns the number
	// of files written.
	//
	// Returns:
	//   - ErrInvalidInput if the archive is malformed, too large, or holds an
	//     entry that would land outside dir
	Unzip(ctx context.Context, scope Scope, dir string, r io.ReaderAt, size int64) (int, error)
}

// Service ties request authentication to root resolution and file operations.
type Service struct {
	validator *RequestValidator
	resolver  RootResolver
	files     FileOps
}

// NewService creates a Service. All dependencies are required.
func NewService(validator *RequestValidator, resolver RootResolver, files FileOps) (*Service, error) {
	switch {
	case validator == nil:
		return nil, errors.New("new service: request validator is required")
	case resolver == nil:
		return nil, errors.New("new service: root resolver is required")
	case files == nil:
		return nil, errors.New("new service: file operations are required")
	}

	return &Service{validator: validator, resolver: resolver, files: files}, nil
}

// Authenticate validates req and resolves the caller's root.
//
// The steps are:
//  1. The request signature and freshness are validated
//  2. The verified identity is resolved to a root
//
// Returns:
//   - Scope: the identity and its root. When resolution does not succeed the
//     root is the resolver's invalid path, so the scope fails Valid.
//   - error: a validation error wrapping ErrUnauthorized, ErrNoRoot when the
//     identity has no directory, or a resolution error (usually wrapping
//     ErrRootResolutionFailed)
func (s *Service) Authenticate(ctx context.Context, req AuthRequest) (Scope, error) {
	if err := s.validator.Validate(ctx, req); err != nil {
		return Scope{}, fmt.Errorf("authenticate: %w", err)
	}

	scope := Scope{Identity: req.User, Root: s.resolver.InvalidPath()}

	info, err := s.resolver.ResolveRoot(ctx, req.User)
	if err != nil {
		return scope, fmt.Errorf("authenticate: %w", err)
	}
	if !info.Exists {
		return scope, fmt.Errorf("authenticate: %s: %w", req.User, ErrNoRoot)
	}

	scope.Root = info.Root
	return scope, nil
}

func (s *Service) List(ctx context.Context, scope Scope, dir string) ([]Entry, error) {
	if err := checkScope(scope); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return s.files.List(ctx, scope, dir)
}

func (s *Service) ListFiles(ctx context.Context, scope Scope, dir string) ([]Entry, error) {
	if err := checkScope(scope); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return s.files.ListFiles(ctx, scope, dir)
}

func (s *Service) ListDirs(ctx context.Context, scope Scope, dir string) ([]Entry, error) {
	if err := checkScope(scope); err != nil {
		return nil, fmt.Errorf("list dirs: %w", err)
	}
	return s.files.ListDirs(ctx, scope, dir)
}

func (s *Service) ZipDir(ctx context.Context, scope Scope, dir string, w io.Writer) error {
	if err := checkScope(scope); err != nil {
		return fmt.Errorf("zip: %w", err)
	}
	return s.files.ZipDir(ctx, scope, dir, w)
}

func (s *Service) Unzip(ctx context.Context, scope Scope, dir string, r io.ReaderAt, size int64) (int, error) {
	if err := checkScope(scope); err != nil {
		return 0, fmt.Errorf("unzip: %w", err)
	}
	return s.files.Unzip(ctx, scope, dir, r, size)
}

func checkScope(scope Scope) error {
	if !scope.Valid() {
		return fmt.Errorf("scope %q: %w", scope.Identity, ErrNoRoot)
	}
	return nil
}

package fsapi

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RootResolver maps a verified identity to the filesystem root it may
// operate under. Implementations are chosen once at startup by
// NewRootResolver and are safe for concurrent use.
type RootResolver interface {
	ResolveRoot(ctx context.Context, identity string) (RootInfo, error)
	// InvalidPath returns a path no resolution ever produces. Callers use
	// it to short-circuit file operations when resolution fails.
	InvalidPath() string
}

// RootConfig selects and configures the root resolution strategy.
type RootConfig struct {
	DynamicRoot bool
	HomeRoot    string
}

// InvalidPath is the sentinel returned by every RootResolver.
func InvalidPath() string {
	return filepath.Join(string(os.PathSeparator), "invalid_path")
}

// NewRootResolver returns a DynamicRoot backed by dir when cfg.DynamicRoot
// is set, and a StaticRoot on cfg.HomeRoot otherwise. A dynamic
// configuration without a directory capability is a startup error.
func NewRootResolver(cfg RootConfig, dir DirectoryInfo) (RootResolver, error) {
	if cfg.DynamicRoot {
		if dir == nil {
			return nil, errors.New("new root resolver: dynamic root enabled but no directory info service configured")
		}
		return NewDynamicRoot(dir), nil
	}
	return NewStaticRoot(cfg.HomeRoot)
}

// StaticRoot shares a single home root between all identities. Each
// identity owns the subdirectory named after it.
type StaticRoot struct {
	root string
}

// NewStaticRoot creates a StaticRoot. The root must be absolute and must not
// overlap the invalid path sentinel.
func NewStaticRoot(homeRoot string) (*StaticRoot, error) {
	if homeRoot == "" {
		return nil, fmt.Errorf("new static root: empty home root: %w", ErrInvalidInput)
	}

	abs, err := filepath.Abs(homeRoot)
	if err != nil {
		return nil, fmt.Errorf("new static root: %w", err)
	}

	if overlapsInvalidPath(abs) {
		return nil, fmt.Errorf("new static root: %s overlaps the invalid path: %w", abs, ErrInvalidInput)
	}

	return &StaticRoot{root: abs}, nil
}

// ResolveRoot reports whether <root>/<identity> is a directory. A missing
// directory yields Exists=false and no error.
func (s *StaticRoot) ResolveRoot(ctx context.Context, identity string) (RootInfo, error) {
	if err := ctx.Err(); err != nil {
		return RootInfo{}, err
	}

	if !IsValidIdentity(identity) {
		return RootInfo{}, fmt.Errorf("resolve root: invalid identity %q: %w", identity, ErrInvalidInput)
	}

	info, err := os.Stat(filepath.Join(s.root, identity))
	switch {
	case err == nil:
		return RootInfo{Exists: info.IsDir(), Root: s.root}, nil
	case errors.Is(err, os.ErrNotExist):
		return RootInfo{Exists: false, Root: s.root}, nil
	default:
		return RootInfo{}, fmt.Errorf("resolve root: stat %s: %w: %w", identity, ErrRootResolutionFailed, err)
	}
}

func (s *StaticRoot) InvalidPath() string {
	return InvalidPath()
}

// Root returns the configured home root.
func (s *StaticRoot) Root() string {
	return s.root
}

// DynamicRoot delegates resolution to an external directory service.
type DynamicRoot struct {
	dir DirectoryInfo
}

func NewDynamicRoot(dir DirectoryInfo) *DynamicRoot {
	return &DynamicRoot{dir: dir}
}

// ResolveRoot asks the directory service for the identity's root. Service
// failures and unusable answers wrap ErrRootResolutionFailed.
func (d *DynamicRoot) ResolveRoot(ctx context.Context, identity string) (RootInfo, error) {
	if !IsValidIdentity(identity) {
		return RootInfo{}, fmt.Errorf("resolve root: invalid identity %q: %w", identity, ErrInvalidInput)
	}

	info, err := d.dir.GetRoot(ctx, identity)
	if err != nil {
		return RootInfo{}, fmt.Errorf("resolve root %s: %w: %w", identity, ErrRootResolutionFailed, err)
	}

	if !info.Exists && info.Root == "" {
		return RootInfo{Exists: false}, nil
	}

	if info.Root == "" || !filepath.IsAbs(info.Root) {
		return RootInfo{}, fmt.Errorf("resolve root %s: directory service returned %q: %w", identity, info.Root, ErrRootResolutionFailed)
	}

	info.Root = filepath.Clean(info.Root)
	if overlapsInvalidPath(info.Root) {
		return RootInfo{}, fmt.Errorf("resolve root %s: directory service returned the invalid path: %w", identity, ErrRootResolutionFailed)
	}

	return info, nil
}

func (d *DynamicRoot) InvalidPath() string {
	return InvalidPath()
}

func overlapsInvalidPath(p string) bool {
	invalid := InvalidPath()
	return p == invalid || strings.HasPrefix(p, invalid+string(os.PathSeparator))
}

package dirinfo

import (
	"context"

	"github.com/sagarc03/fsapi"
)

// Map is a static DirectoryInfo. Users missing from the map have no root.
type Map map[string]fsapi.RootInfo

// NewMap builds a Map where every listed user exists under root.
func NewMap(root string, users ...string) Map {
	m := make(Map, len(users))
	for _, u := range users {
		m[u] = fsapi.RootInfo{Exists: true, Root: root}
	}
	return m
}

func (m Map) GetRoot(ctx context.Context, user string) (fsapi.RootInfo, error) {
	if err := ctx.Err(); err != nil {
		return fsapi.RootInfo{}, err
	}
	info, ok := m[user]
	if !ok {
		return fsapi.RootInfo{Exists: false}, nil
	}
	return info, nil
}

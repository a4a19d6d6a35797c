// Package keybackend provides SecretStore implementations for key retrieval.
package keybackend

import (
	"context"
	"fmt"
)

// MapSecretStore retrieves keys from an in-memory map.
// The map is never written after construction, so concurrent lookups are safe.
type MapSecretStore struct {
	keys map[string]string
}

// NewMapSecretStore creates a new map-based secret store with the given user to secret key mapping.
func NewMapSecretStore(keys map[string]string) *MapSecretStore {
	return &MapSecretStore{keys: keys}
}

// Lookup retrieves the secret key for the given user from the map.
func (s *MapSecretStore) Lookup(_ context.Context, user string) (string, error) {
	secretKey, found := s.keys[user]
	if !found {
		return "", fmt.Errorf("lookup %q: %w", user, ErrKeyNotFound)
	}
	return secretKey, nil
}

// Len returns the number of users with a key.
func (s *MapSecretStore) Len() int {
	return len(s.keys)
}

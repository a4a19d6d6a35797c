package fsapi

import "context"

// SecretStore resolves the secret key bound to a user.
// Implementations must be safe for concurrent reads.
type SecretStore interface {
	// Lookup returns the user's secret key. It returns an error wrapping
	// ErrUnknownUser when the user has no key.
	Lookup(ctx context.Context, user string) (string, error)
}

// DirectoryInfo maps an identity to its filesystem root using an external
// per-user directory service. Timeouts are the implementation's concern.
type DirectoryInfo interface {
	GetRoot(ctx context.Context, user string) (RootInfo, error)
}

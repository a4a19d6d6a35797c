package fsapi

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// AuthRequest carries the authentication fields of a single API call.
// Payload is digested as opaque text.
type AuthRequest struct {
	User      string
	Timestamp string
	Payload   string
	Signature string
}

// RootInfo describes where an identity's files live. Exists is false when
// the identity has no directory yet; that is valid state, not an error.
type RootInfo struct {
	Exists bool   `json:"exists"`
	Root   string `json:"root"`
}

// FingerprintAlgorithm selects the digest applied to the payload before it
// enters the signed string.
type FingerprintAlgorithm string

const (
	// FingerprintMD5 is the 128-bit digest existing clients sign with.
	FingerprintMD5 FingerprintAlgorithm = "md5"
	// FingerprintSHA256 is the 256-bit digest for deployments that control
	// their clients.
	FingerprintSHA256 FingerprintAlgorithm = "sha256"
)

func (a FingerprintAlgorithm) IsValid() bool {
	switch a {
	case FingerprintMD5, FingerprintSHA256:
		return true
	default:
		return false
	}
}

func ParseFingerprintAlgorithm(s string) (FingerprintAlgorithm, error) {
	alg := FingerprintAlgorithm(s)
	if !alg.IsValid() {
		return "", fmt.Errorf("invalid fingerprint algorithm: %s (valid: md5, sha256)", s)
	}
	return alg, nil
}

// Entry is a single item of a directory listing.
type Entry struct {
	Name    string    `json:"name"`
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Tables holds configurable table names for audit storage.
// This allows several deployments to share one database.
type Tables struct {
	Audit string `mapstructure:"audit"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Audit == "" {
		return errors.New("validate tables: audit table name cannot be empty")
	}

	if !IsValidTableName(t.Audit) {
		return fmt.Errorf("validate tables: invalid audit table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Audit)
	}

	return nil
}

// Scope is an authenticated identity bound to the root it resolved to.
type Scope struct {
	Identity string
	Root     string
}

// Dir is the directory the identity may operate in.
func (s Scope) Dir() string {
	return filepath.Join(s.Root, s.Identity)
}

// Valid reports whether the scope may be used for file operations.
func (s Scope) Valid() bool {
	return s.Identity != "" && s.Root != "" && !overlapsInvalidPath(filepath.Clean(s.Root))
}

package clientcli

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoProfiles      = errors.New("no profiles configured")
	ErrProfileExists   = errors.New("profile already exists")
	// ErrInvalidProfiles is returned by LoadConfigFile for a file that
	// repeats a profile name, leaves a name empty or marks two defaults.
	ErrInvalidProfiles = errors.New("invalid profile file")
)

var (
	ErrUserRequired      = errors.New("user is required")
	ErrSecretKeyRequired = errors.New("secret key is required")
	ErrConfigRequired    = errors.New("config is required")
	ErrEmptyPath         = errors.New("path is required")
)

package fsapi

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInternal is returned when an internal error occurs
	ErrInternal = errors.New("internal error")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized is returned when authentication fails. Every
	// validation reason below wraps it.
	ErrUnauthorized = errors.New("unauthorized")
)

// Validation reasons. These never reach the caller of the API; they are
// kept for audit records and server logs.
var (
	ErrInvalidKey         = errors.New("invalid key")
	ErrUnknownUser        = errors.New("unknown user")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrExpired            = errors.New("request expired")
)

// ErrRootResolutionFailed is returned when the directory service cannot
// produce a root for an identity. It is an operational failure, distinct
// from a RootInfo with Exists set to false.
var ErrRootResolutionFailed = errors.New("root resolution failed")

// ErrNoRoot is returned when an authenticated identity has no directory.
var ErrNoRoot = errors.New("no root")

// ReasonCode maps a validation error to a stable code for audit records.
// Errors outside the validation taxonomy map to "internal".
func ReasonCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, ErrSignatureMismatch):
		return "signature_mismatch"
	case errors.Is(err, ErrMalformedTimestamp):
		return "malformed_timestamp"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrInvalidKey):
		return "invalid_key"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrRootResolutionFailed):
		return "root_resolution_failed"
	case errors.Is(err, ErrNoRoot):
		return "no_root"
	default:
		return "internal"
	}
}

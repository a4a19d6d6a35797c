package http

import "errors"

var (
	// ErrMissingField is returned when a request lacks one of the
	// authentication fields. It is answered like any other auth failure.
	ErrMissingField = errors.New("missing auth field")
	// ErrMalformedRequest is returned when the request form cannot be parsed.
	ErrMalformedRequest = errors.New("malformed request")
	// ErrRequestTooLarge is returned when the request body exceeds the upload limit.
	ErrRequestTooLarge = errors.New("request too large")
	// ErrMissingFile is returned when an upload carries no archive.
	ErrMissingFile = errors.New("missing file")
)

package dirinfo

import "errors"

var (
	ErrEndpointRequired = errors.New("directory endpoint is required")
	ErrUnexpectedStatus = errors.New("unexpected directory service status")
)

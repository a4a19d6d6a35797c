package keybackend

import (
	"fmt"

	"github.com/sagarc03/fsapi"
)

// ErrKeyNotFound is returned when the user has no secret key in the store.
var ErrKeyNotFound = fmt.Errorf("secret key not found: %w", fsapi.ErrUnknownUser)

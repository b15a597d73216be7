package arena

import "errors"

// ErrNotFound is returned (wrapped) when an id has no entry.
var ErrNotFound = errors.New("not found")

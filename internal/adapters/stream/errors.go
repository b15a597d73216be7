package stream

import "errors"

// ErrHubClosed is returned when subscribing to a closed hub.
var ErrHubClosed = errors.New("stream hub closed")

package replay

import "errors"

// Sentinel kinds for replay errors.
var (
	ErrRootRequired       = errors.New("replay root must be provided")
	ErrWriterClosed       = errors.New("replay writer closed")
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
	ErrTruncatedFrame     = errors.New("frame payload truncated")
)

package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidLimit  = errors.New("invalid ladder limit")
	ErrInvalidResult = errors.New("invalid match result")
)

package model

import "errors"

// Sentinel error kinds for this package.
var (
	ErrInvalidTuning = errors.New("invalid tuning")
	ErrUnknownValue  = errors.New("unknown enum value")
)

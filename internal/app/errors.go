package service

import (
	"errors"

	"github.com/okian/matchsim/internal/adapters/repository"
)

// Sentinel kinds for service errors.
var (
	// ErrInvalidRequest wraps every request the engine would refuse to play.
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnknownTeam    = errors.New("unknown team")
	ErrDuplicateTeam  = errors.New("duplicate team")
	ErrBackpressure   = errors.New("simulation queue is full")
	ErrNotStarted     = errors.New("service not started")
	ErrReplayDisabled = errors.New("replays are disabled")

	// ErrNotFound is the repository not-found kind, shared so callers need one check.
	ErrNotFound = repository.ErrNotFound
)

package match

import (
	"errors"
	"fmt"

	"github.com/okian/matchsim/internal/domain/model"
)

// Sentinel error kinds for match construction.
var (
	ErrSelfPlay             = errors.New("home and away team are the same")
	ErrInvalidQuarterLength = errors.New("invalid quarter length")
	ErrInsufficientRoster   = errors.New("insufficient roster")
)

// InsufficientRosterError reports a team that cannot field a legal side.
type InsufficientRosterError struct {
	TeamID    model.TeamID
	Available int
	Required  int
}

func (e *InsufficientRosterError) Error() string {
	return fmt.Sprintf("team %d has %d available players, needs %d: %s", e.TeamID, e.Available, e.Required, ErrInsufficientRoster)
}

// Is matches ErrInsufficientRoster.
func (e *InsufficientRosterError) Is(target error) bool {
	return target == ErrInsufficientRoster
}

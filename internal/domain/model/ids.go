// Package model holds the static match inputs, engine tuning and the result
// types passed between the engine and its collaborators.
package model

// TeamID identifies a team.
type TeamID int

// PlayerID identifies a player.
type PlayerID int

// NoTeam is the winner of a drawn match.
const NoTeam TeamID = -1

// Side is one of the two teams in a match.
type Side int

// Sides.
const (
	Home Side = iota
	Away
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Home {
		return Away
	}
	return Home
}

func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

// Package repository defines the result, injury history and ladder stores
// and their in-memory implementations.
package repository

import (
	"context"

	"github.com/okian/matchsim/internal/domain/model"
)

// ResultStore keeps final match results.
type ResultStore interface {
	// Save stores res under its match id, replacing any earlier result.
	Save(ctx context.Context, res model.MatchResult) error

	// Get returns the result for a match.
	// Returns ErrNotFound if the match is unknown.
	Get(ctx context.Context, matchID string) (model.MatchResult, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) int
}

// InjuryHistoryStore persists injuries across matches.
type InjuryHistoryStore interface {
	// Load returns every recorded injury for the given players. Players with
	// no history are absent from the result.
	Load(ctx context.Context, playerIDs []model.PlayerID) (model.InjuryHistory, error)

	// Record stores the injuries of one or more matches. Earlier records of
	// any match present in records are replaced, so recording a match twice
	// leaves the history as if it was recorded once.
	Record(ctx context.Context, records []model.InjuryRecord) error
}

// Standing is one row of the premiership ladder.
type Standing struct {
	Position          int          `json:"position"`
	TeamID            model.TeamID `json:"team_id"`
	Played            int          `json:"played"`
	Wins              int          `json:"wins"`
	Losses            int          `json:"losses"`
	Draws             int          `json:"draws"`
	PointsFor         int          `json:"points_for"`
	PointsAgainst     int          `json:"points_against"`
	Percentage        float64      `json:"percentage"`
	PremiershipPoints int          `json:"premiership_points"`
}

// Ladder accumulates results into premiership standings.
type Ladder interface {
	// Record applies a result to both teams. It returns false when the match
	// was already applied.
	Record(ctx context.Context, res model.MatchResult) (bool, error)

	// Standing returns a team's position and tally.
	// Returns ErrNotFound if the team has not played.
	Standing(ctx context.Context, team model.TeamID) (Standing, error)

	// Top returns the first n positions in ladder order.
	Top(ctx context.Context, n int) ([]Standing, error)

	// Count returns the number of teams on the ladder.
	Count(ctx context.Context) int
}

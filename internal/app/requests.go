package service

import (
	"fmt"
	"slices"
	"time"

	"github.com/okian/matchsim/internal/domain/arena"
	"github.com/okian/matchsim/internal/domain/model"
)

// Round states.
const (
	RoundPending             = "pending"
	RoundCompleted           = "completed"
	RoundCompletedWithErrors = "completed_with_errors"
)

// TeamEntry is a team with its selected players in selection order.
type TeamEntry struct {
	Team    model.Team     `json:"team"`
	Roster  model.Roster   `json:"roster"`
	Tactics *model.Tactics `json:"tactics,omitempty"`
}

// Fixture is one match to play between two submitted teams.
type Fixture struct {
	// MatchID is generated when empty.
	MatchID    string       `json:"match_id,omitempty"`
	HomeTeamID model.TeamID `json:"home_team_id"`
	AwayTeamID model.TeamID `json:"away_team_id"`

	Weather model.Weather `json:"weather"`
	Ground  model.Ground  `json:"ground"`

	// QuarterLengthSeconds falls back to the service default when zero.
	QuarterLengthSeconds int   `json:"quarter_length_seconds,omitempty"`
	QuarterLengths       []int `json:"quarter_lengths,omitempty"`

	// Seed is derived from the match id when nil.
	Seed *int64 `json:"seed,omitempty"`
}

// MatchRequest asks for one match to be simulated synchronously.
type MatchRequest struct {
	Round int         `json:"round"`
	Teams []TeamEntry `json:"teams"`
	// SkipHistory plays the match against the stored injury history without
	// recording its own injuries.
	SkipHistory bool `json:"skip_history,omitempty"`
	Fixture
}

// RoundRequest submits a round of fixtures for background simulation.
type RoundRequest struct {
	Round    int         `json:"round"`
	Teams    []TeamEntry `json:"teams"`
	Fixtures []Fixture   `json:"fixtures"`
}

// RoundStatus reports the progress of a submitted round.
type RoundStatus struct {
	ID          string            `json:"id"`
	Round       int               `json:"round"`
	Status      string            `json:"status"`
	Total       int               `json:"total"`
	Completed   int               `json:"completed"`
	Failed      int               `json:"failed"`
	MatchIDs    []string          `json:"match_ids"`
	Errors      map[string]string `json:"errors,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

func (r *RoundStatus) clone() RoundStatus {
	out := *r
	out.MatchIDs = slices.Clone(r.MatchIDs)
	if r.Errors != nil {
		out.Errors = make(map[string]string, len(r.Errors))
		for k, v := range r.Errors {
			out.Errors[k] = v
		}
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		out.CompletedAt = &at
	}
	return out
}

// league indexes the submitted teams for request building.
type league struct {
	teams   *arena.Arena[model.TeamID, model.Team]
	rosters *arena.Arena[model.TeamID, model.Roster]
	tactics map[model.TeamID]*model.Tactics
	players []model.PlayerID
}

func newLeague(entries []TeamEntry) (league, error) {
	if len(entries) < 2 {
		return league{}, fmt.Errorf("%w: at least two teams are required", ErrInvalidRequest)
	}

	l := league{
		teams:   arena.New[model.TeamID, model.Team](),
		rosters: arena.New[model.TeamID, model.Roster](),
		tactics: make(map[model.TeamID]*model.Tactics, len(entries)),
	}
	for _, e := range entries {
		id := e.Team.ID
		if l.teams.Has(id) {
			return league{}, fmt.Errorf("%w: %w: team %d", ErrInvalidRequest, ErrDuplicateTeam, id)
		}
		l.teams.Put(id, e.Team)
		l.rosters.Put(id, slices.Clone(e.Roster))
		if e.Tactics != nil {
			t := *e.Tactics
			l.tactics[id] = &t
		}
		l.players = append(l.players, e.Roster.IDs()...)
	}
	return l, nil
}

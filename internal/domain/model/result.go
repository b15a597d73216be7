package model

import (
	"encoding/json"
	"strconv"
)

// Score is one team's tally.
type Score struct {
	Goals   int `json:"goals"`
	Behinds int `json:"behinds"`
}

// Points returns 6 per goal plus 1 per behind.
func (s Score) Points() int {
	return 6*s.Goals + s.Behinds
}

func (s Score) String() string {
	return strconv.Itoa(s.Goals) + "." + strconv.Itoa(s.Behinds) + " (" + strconv.Itoa(s.Points()) + ")"
}

// MarshalJSON adds the derived points to the encoded score.
func (s Score) MarshalJSON() ([]byte, error) {
	type plain Score
	return json.Marshal(struct {
		plain
		Points int `json:"points"`
	}{plain(s), s.Points()})
}

// Winner derives the winning team from the final scores. A draw returns
// NoTeam and true.
func Winner(homeID, awayID TeamID, home, away Score) (TeamID, bool) {
	switch hp, ap := home.Points(), away.Points(); {
	case hp > ap:
		return homeID, false
	case ap > hp:
		return awayID, false
	default:
		return NoTeam, true
	}
}

// TeamSummary aggregates one team's match.
type TeamSummary struct {
	TeamID             TeamID  `json:"team_id"`
	Interchanges       int     `json:"interchanges"`
	InjuryReplacements int     `json:"injury_replacements"`
	NewInjuries        int     `json:"new_injuries"`
	AverageCondition   float64 `json:"average_condition"`
}

// PlayerSummary is a player's state at the final siren.
type PlayerSummary struct {
	PlayerID         PlayerID `json:"player_id"`
	TeamID           TeamID   `json:"team_id"`
	Name             string   `json:"name"`
	Condition        float64  `json:"condition"`
	InjuryMultiplier float64  `json:"injury_multiplier"`
	SecondsPlayed    int      `json:"seconds_played"`
	OnField          bool     `json:"on_field"`
	InjuredOut       bool     `json:"injured_out"`
}

// MatchResult is the outcome of one simulated match.
type MatchResult struct {
	MatchID     string          `json:"match_id"`
	Round       int             `json:"round"`
	HomeTeamID  TeamID          `json:"home_team_id"`
	AwayTeamID  TeamID          `json:"away_team_id"`
	Home        Score           `json:"home"`
	Away        Score           `json:"away"`
	Winner      TeamID          `json:"winner"`
	IsDraw      bool            `json:"is_draw"`
	Seed        int64           `json:"seed"`
	HomeSummary TeamSummary     `json:"home_summary"`
	AwaySummary TeamSummary     `json:"away_summary"`
	Players     []PlayerSummary `json:"players"`
	Injuries    []InjuryRecord  `json:"injuries"`
	Ticks       int             `json:"ticks"`
}

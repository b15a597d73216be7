package simcheck

import (
	"time"

	service "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/domain/model"
)

// Config holds configuration for the determinism check
type Config struct {
	BaseURL       string        // Base URL of the service
	Teams         int           // Number of generated teams
	Rounds        int           // Number of rounds to play
	Seed          int64         // League and fixture seed
	QuarterLength int           // Quarter length in seconds, 0 for the server default
	Workers       int           // Concurrent resimulations
	Timeout       time.Duration // HTTP request timeout
	RoundTimeout  time.Duration // How long to wait for a round to complete
	PollInterval  time.Duration // Round status poll interval
	OutputFile    string        // Output file for generated rounds
	Verbose       bool          // Enable verbose logging
}

// Round is one generated round together with the league it is played in.
type Round struct {
	Number  int                  `json:"round"`
	Request service.RoundRequest `json:"request"`
}

// Mismatch describes one match whose replay did not reproduce the original.
type Mismatch struct {
	Round   int      `json:"round"`
	MatchID string   `json:"match_id"`
	Fields  []string `json:"fields"`
}

// simulateResponse mirrors the body of POST /api/v1/matches.
type simulateResponse struct {
	Result model.MatchResult `json:"result"`
}

// Stats holds check statistics
type Stats struct {
	RoundsSubmitted int
	MatchesPlayed   int
	MatchesReplayed int
	MatchesFailed   int
	Mismatches      []Mismatch
	LadderTeams     int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

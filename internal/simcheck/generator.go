package simcheck

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	service "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/domain/fixture"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/rng"
	"github.com/okian/matchsim/pkg/logger"
)

// generateLeague builds the teams shared by every round.
func generateLeague(config *Config) ([]service.TeamEntry, []model.TeamID) {
	teams, rosters := fixture.League(config.Seed, config.Teams, fixture.DefaultRosterSize)
	entries := make([]service.TeamEntry, len(teams))
	ids := make([]model.TeamID, len(teams))
	for i := range teams {
		entries[i] = service.TeamEntry{Team: teams[i], Roster: rosters[i]}
		ids[i] = teams[i].ID
	}
	return entries, ids
}

// generateRounds pairs the league into config.Rounds rounds. Every fixture
// carries an explicit seed and match id so it can be replayed exactly.
func generateRounds(ctx context.Context, config *Config) ([]Round, error) {
	if config.Teams < 2 {
		return nil, fmt.Errorf("need at least 2 teams, got %d", config.Teams)
	}
	if config.Rounds < 1 {
		return nil, fmt.Errorf("need at least 1 round, got %d", config.Rounds)
	}
	entries, ids := generateLeague(config)

	rounds := make([]Round, config.Rounds)
	for r := range rounds {
		number := r + 1
		src := rng.New(config.Seed + int64(number))
		pairs := fixture.Round(src, ids)

		fixtures := make([]service.Fixture, len(pairs))
		for i, p := range pairs {
			weather, ground := fixture.Conditions(src)
			seed := int64(src.IntN(maxSeed)) + 1
			fixtures[i] = service.Fixture{
				MatchID:              uuid.NewString(),
				HomeTeamID:           p.Home,
				AwayTeamID:           p.Away,
				Weather:              weather,
				Ground:               ground,
				QuarterLengthSeconds: config.QuarterLength,
				Seed:                 &seed,
			}
		}
		rounds[r] = Round{
			Number: number,
			Request: service.RoundRequest{
				Round:    number,
				Teams:    entries,
				Fixtures: fixtures,
			},
		}
	}

	logger.Get().Info(ctx, "generated rounds",
		logger.Int("teams", config.Teams),
		logger.Int("rounds", len(rounds)),
		logger.Int("fixturesPerRound", len(rounds[0].Request.Fixtures)))
	return rounds, nil
}

// replayRequest rebuilds one fixture of r as a synchronous match under a
// fresh match id. The replay does not record injuries.
func replayRequest(r Round, f service.Fixture) service.MatchRequest {
	f.MatchID = uuid.NewString()
	return service.MatchRequest{
		Round:       r.Number,
		Teams:       r.Request.Teams,
		SkipHistory: true,
		Fixture:     f,
	}
}

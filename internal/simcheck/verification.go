package simcheck

import (
	"context"
	"fmt"
	"reflect"

	"github.com/okian/matchsim/internal/adapters/repository"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
)

// compareResults lists the fields in which replayed differs from original.
// Match ids are expected to differ and are ignored.
func compareResults(original, replayed model.MatchResult) []string { //nolint:gocritic // hugeParam
	var fields []string
	check := func(name string, a, b any) {
		if !reflect.DeepEqual(a, b) {
			fields = append(fields, name)
		}
	}

	check("seed", original.Seed, replayed.Seed)
	check("home", original.Home, replayed.Home)
	check("away", original.Away, replayed.Away)
	check("winner", original.Winner, replayed.Winner)
	check("is_draw", original.IsDraw, replayed.IsDraw)
	check("ticks", original.Ticks, replayed.Ticks)
	check("home_summary", original.HomeSummary, replayed.HomeSummary)
	check("away_summary", original.AwaySummary, replayed.AwaySummary)
	check("players", original.Players, replayed.Players)
	check("injuries", stripMatchIDs(original.Injuries), stripMatchIDs(replayed.Injuries))
	return fields
}

func stripMatchIDs(records []model.InjuryRecord) []model.InjuryRecord {
	out := make([]model.InjuryRecord, len(records))
	for i, r := range records {
		r.MatchID = ""
		out[i] = r
	}
	return out
}

// verifyLadder checks that standings are in ladder order and that every
// team played the expected number of matches.
func verifyLadder(standings []repository.Standing, played int) error {
	if len(standings) == 0 {
		return fmt.Errorf("empty ladder")
	}
	for i, s := range standings {
		if s.Position != i+1 {
			return fmt.Errorf("entry %d has position %d", i, s.Position)
		}
		if s.Played != played {
			return fmt.Errorf("team %d played %d matches, expected %d", s.TeamID, s.Played, played)
		}
		if i == 0 {
			continue
		}
		prev := standings[i-1]
		switch {
		case s.PremiershipPoints > prev.PremiershipPoints:
			return fmt.Errorf("entry %d has more premiership points than entry %d", i, i-1)
		case s.PremiershipPoints == prev.PremiershipPoints && s.Percentage > prev.Percentage:
			return fmt.Errorf("entry %d has a higher percentage than entry %d", i, i-1)
		}
	}
	return nil
}

// displayLadder logs the top of the ladder.
func displayLadder(ctx context.Context, standings []repository.Standing, verbose bool) {
	n := 8
	if verbose || len(standings) < n {
		n = len(standings)
	}
	for _, s := range standings[:n] {
		logger.Get().Info(ctx, "ladder",
			logger.Int("position", s.Position),
			logger.Int("team", int(s.TeamID)),
			logger.Int("played", s.Played),
			logger.Int("points", s.PremiershipPoints),
			logger.Float64("percentage", s.Percentage))
	}
}

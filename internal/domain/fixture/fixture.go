// Package fixture generates plausible teams, rosters and round pairings from
// a seed. The same seed always yields the same league.
package fixture

import (
	"fmt"

	"github.com/okian/matchsim/internal/domain/arena"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/rng"
)

// Generation ranges.
const (
	DefaultRosterSize = 22

	minQuality   = 45.0
	qualitySpan  = 30.0
	playerSpread = 15.0
	minAttribute = 1.0
	maxAttribute = 99.0
)

var (
	clubNames = []string{
		"Harbour", "Ridge", "Valley", "Bayside", "Northern", "Coastal", "Plains", "Highland", "River",
		"Summit", "Lakeside", "Western", "Eastern", "Southern", "Forest", "Granite", "Ironbark", "Wattle",
	}
	clubSuffixes = []string{"Hawks", "Magpies", "Swans", "Bombers", "Tigers", "Saints", "Lions", "Giants", "Crows"}
	givenNames   = []string{"Jack", "Tom", "Sam", "Will", "Max", "Josh", "Ben", "Luke", "Nick", "Zac", "Tim", "Harry"}
	familyNames  = []string{"Walsh", "Daicos", "Kelly", "Nankervis", "Cripps", "Petracca", "Bontempelli", "Oliver", "Dunkley", "Gawn"}
)

// Team generates one team and its roster. Every attribute sits around a
// team-wide quality level so stronger clubs field stronger players.
func Team(src *rng.Source, id model.TeamID, rosterSize int) (model.Team, model.Roster) {
	quality := minQuality + src.Float64()*qualitySpan
	team := model.Team{
		ID:      id,
		Name:    fmt.Sprintf("%s %s", clubNames[src.IntN(len(clubNames))], clubSuffixes[src.IntN(len(clubSuffixes))]),
		Offense: attribute(src, quality),
		Defense: attribute(src, quality),
	}

	roster := make(model.Roster, rosterSize)
	for i := range roster {
		roster[i] = model.Player{
			ID:   model.PlayerID(int(id)*1000 + i + 1),
			Name: givenNames[src.IntN(len(givenNames))] + " " + familyNames[src.IntN(len(familyNames))],
			Role: model.Role(i % 5),
			Attributes: model.Attributes{
				Clearance:      attribute(src, quality),
				Kicking:        attribute(src, quality),
				Marking:        attribute(src, quality),
				Strength:       attribute(src, quality),
				Positioning:    attribute(src, quality),
				DecisionMaking: attribute(src, quality),
				Tackling:       attribute(src, quality),
				WorkRate:       attribute(src, quality),
			},
			Endurance:  attribute(src, quality),
			Durability: attribute(src, quality),
			Discipline: attribute(src, quality),
		}
	}
	return team, roster
}

func attribute(src *rng.Source, quality float64) float64 {
	v := quality + (src.Float64()*2-1)*playerSpread
	switch {
	case v < minAttribute:
		return minAttribute
	case v > maxAttribute:
		return maxAttribute
	default:
		return float64(int(v*10)) / 10
	}
}

// League generates n teams with ids 1..n.
func League(seed int64, n, rosterSize int) ([]model.Team, []model.Roster) {
	src := rng.New(seed)
	teams := make([]model.Team, n)
	rosters := make([]model.Roster, n)
	for i := range teams {
		teams[i], rosters[i] = Team(src, model.TeamID(i+1), rosterSize)
	}
	return teams, rosters
}

// Pairing is one fixture of a round.
type Pairing struct {
	Home model.TeamID
	Away model.TeamID
}

// Round shuffles teams into home/away pairs. With an odd count the last
// team has a bye. No team is paired with itself.
func Round(src *rng.Source, teams []model.TeamID) []Pairing {
	order := append([]model.TeamID(nil), teams...)
	for i := len(order) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	pairs := make([]Pairing, 0, len(order)/2)
	for i := 0; i+1 < len(order); i += 2 {
		pairs = append(pairs, Pairing{Home: order[i], Away: order[i+1]})
	}
	return pairs
}

// Conditions draws weather and ground for a fixture, favouring fine weather
// and good grounds.
func Conditions(src *rng.Source) (model.Weather, model.Ground) {
	weather := model.Weather(src.WeightedIndex([]float64{0.5, 0.15, 0.2, 0.1, 0.05}))
	ground := model.Ground(src.WeightedIndex([]float64{0.55, 0.2, 0.15, 0.1}))
	return weather, ground
}

// Request builds a full-length match between two generated teams, ids 1
// (home) and 2 (away), seeded with seed.
func Request(seed int64, matchID string) match.Request {
	teams, rosters := League(seed, 2, DefaultRosterSize)
	teamArena := arena.New[model.TeamID, model.Team]()
	rosterArena := arena.New[model.TeamID, model.Roster]()
	for i := range teams {
		teamArena.Put(teams[i].ID, teams[i])
		rosterArena.Put(teams[i].ID, rosters[i])
	}
	return match.Request{
		MatchID:              matchID,
		Round:                1,
		HomeTeamID:           teams[0].ID,
		AwayTeamID:           teams[1].ID,
		Teams:                teamArena,
		Rosters:              rosterArena,
		QuarterLengthSeconds: 1200,
		Seed:                 seed,
	}
}

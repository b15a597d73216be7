// Package state holds the mutable per-match runtime of teams and players.
//
// A Team and its Players are owned by one match run and are not safe for
// concurrent use.
package state

import (
	"github.com/okian/matchsim/internal/domain/model"
)

// Player is the runtime view of one player for one match.
type Player struct {
	Static model.Player
	// Order is the player's index in the roster. It breaks selection ties.
	Order int

	Condition        float64
	InjuryMultiplier float64
	OnField          bool
	InjuredOut       bool
	SecondsPlayed    int
}

// Effective is the product of condition and injury multiplier.
func (p *Player) Effective() float64 {
	return p.Condition * p.InjuryMultiplier
}

// Eligible reports whether the player may take the field.
func (p *Player) Eligible() bool {
	return !p.InjuredOut && p.InjuryMultiplier > 0
}

// Team is the runtime view of one side.
type Team struct {
	Info    model.Team
	Side    model.Side
	Tactics model.Tactics
	Players []*Player

	Interchanges        int
	QuarterInterchanges int
	InjuryReplacements  int
	NewInjuries         int
}

// NewTeam builds runtime state from static inputs. Pre-existing injuries set
// each player's starting multiplier; a player whose multiplier is zero is
// unavailable. The first onFieldSize eligible players in roster order start.
// Inputs are copied and never modified.
func NewTeam(info model.Team, side model.Side, roster model.Roster, tactics model.Tactics, history model.InjuryHistory, onFieldSize int) *Team {
	t := &Team{
		Info:    info,
		Side:    side,
		Tactics: tactics,
		Players: make([]*Player, 0, len(roster)),
	}
	selected := 0
	for i, sp := range roster {
		p := &Player{
			Static:           sp,
			Order:            i,
			Condition:        1.0,
			InjuryMultiplier: history.StartingMultiplier(sp.ID),
		}
		if p.InjuryMultiplier == 0 {
			p.InjuredOut = true
		}
		if p.Eligible() && selected < onFieldSize {
			p.OnField = true
			selected++
		}
		t.Players = append(t.Players, p)
	}
	return t
}

// Available counts players in roster that can take the field given history.
func Available(roster model.Roster, history model.InjuryHistory) int {
	n := 0
	for _, p := range roster {
		if history.StartingMultiplier(p.ID) > 0 {
			n++
		}
	}
	return n
}

// OnField returns the players on the field in roster order.
func (t *Team) OnField() []*Player {
	out := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.OnField {
			out = append(out, p)
		}
	}
	return out
}

// OnFieldCount returns the number of players on the field.
func (t *Team) OnFieldCount() int {
	n := 0
	for _, p := range t.Players {
		if p.OnField {
			n++
		}
	}
	return n
}

// Bench returns eligible players off the field in roster order.
func (t *Team) Bench() []*Player {
	out := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		if !p.OnField && p.Eligible() {
			out = append(out, p)
		}
	}
	return out
}

// MostFatigued returns the on-field player with the lowest condition, or nil.
// Ties go to the earliest roster position.
func (t *Team) MostFatigued() *Player {
	var best *Player
	for _, p := range t.Players {
		if !p.OnField || p.InjuredOut {
			continue
		}
		if best == nil || p.Condition < best.Condition {
			best = p
		}
	}
	return best
}

// Freshest returns the eligible bench player with the highest condition, or
// nil. Ties go to the earliest roster position.
func (t *Team) Freshest() *Player {
	var best *Player
	for _, p := range t.Players {
		if p.OnField || !p.Eligible() {
			continue
		}
		if best == nil || p.Condition > best.Condition {
			best = p
		}
	}
	return best
}

// AverageCondition is the mean condition of on-field players, or 0 when none.
func (t *Team) AverageCondition() float64 {
	sum, n := 0.0, 0
	for _, p := range t.Players {
		if p.OnField {
			sum += p.Condition
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Sharpness is the mean effective multiplier of on-field players, or 0 when none.
func (t *Team) Sharpness() float64 {
	sum, n := 0.0, 0
	for _, p := range t.Players {
		if p.OnField {
			sum += p.Effective()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// StartQuarter resets per-quarter bookkeeping.
func (t *Team) StartQuarter() {
	t.QuarterInterchanges = 0
}

// RecoverBreak restores amount of condition to every player not injured out,
// capped at 1.
func (t *Team) RecoverBreak(amount float64) {
	for _, p := range t.Players {
		if p.InjuredOut {
			continue
		}
		p.Condition = min(1.0, p.Condition+amount)
	}
}

// Summary projects the team's counters.
func (t *Team) Summary() model.TeamSummary {
	return model.TeamSummary{
		TeamID:             t.Info.ID,
		Interchanges:       t.Interchanges,
		InjuryReplacements: t.InjuryReplacements,
		NewInjuries:        t.NewInjuries,
		AverageCondition:   t.AverageCondition(),
	}
}

// PlayerSummaries projects every player's final state in roster order.
func (t *Team) PlayerSummaries() []model.PlayerSummary {
	out := make([]model.PlayerSummary, 0, len(t.Players))
	for _, p := range t.Players {
		out = append(out, model.PlayerSummary{
			PlayerID:         p.Static.ID,
			TeamID:           t.Info.ID,
			Name:             p.Static.Name,
			Condition:        p.Condition,
			InjuryMultiplier: p.InjuryMultiplier,
			SecondsPlayed:    p.SecondsPlayed,
			OnField:          p.OnField,
			InjuredOut:       p.InjuredOut,
		})
	}
	return out
}

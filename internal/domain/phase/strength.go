package phase

import (
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/state"
)

// Bundle selects the attributes, role weights and baseline rating a phase
// reads from a team.
type Bundle int

// Bundles.
const (
	// Contest is clearance, strength, positioning and decision making.
	Contest Bundle = iota
	// Attack is kicking, marking, decision making and work rate.
	Attack
	// Defence is tackling, marking, positioning and work rate.
	Defence
	// Forward is kicking, marking and decision making near goal.
	Forward
	// Back is marking, positioning, tackling and strength near goal.
	Back
)

func (b Bundle) score(a model.Attributes) float64 {
	switch b {
	case Contest:
		return (a.Clearance + a.Strength + a.Positioning + a.DecisionMaking) / 4
	case Attack:
		return (a.Kicking + a.Marking + a.DecisionMaking + a.WorkRate) / 4
	case Defence:
		return (a.Tackling + a.Marking + a.Positioning + a.WorkRate) / 4
	case Forward:
		return (a.Kicking + a.Marking + a.DecisionMaking) / 3
	case Back:
		return (a.Marking + a.Positioning + a.Tackling + a.Strength) / 4
	default:
		return 0
	}
}

func (b Bundle) roleWeight(r model.Role) float64 {
	switch b {
	case Contest:
		switch r {
		case model.Ruck:
			return 1.5
		case model.Midfielder:
			return 1.2
		case model.Defender, model.Forward, model.Utility:
			return 1.0
		}
	case Forward:
		if r == model.Forward {
			return 1.3
		}
	case Back:
		if r == model.Defender {
			return 1.3
		}
	case Attack, Defence:
	}
	return 1.0
}

func (b Bundle) baseline(t model.Team) float64 {
	switch b {
	case Contest:
		return (t.Offense + t.Defense) / 2
	case Attack, Forward:
		return t.Offense
	case Defence, Back:
		return t.Defense
	default:
		return 0
	}
}

// Strength sums the bundle over on-field players, each scaled by condition
// and injury multiplier, then applies the team baseline. Benched and
// injured-out players contribute nothing. The result is at least minStrength.
func Strength(team *state.Team, b Bundle, minStrength float64) float64 {
	sum := 0.0
	for _, p := range team.Players {
		if !p.OnField {
			continue
		}
		sum += b.roleWeight(p.Static.Role) * b.score(p.Static.Attributes) / 100 * p.Effective()
	}
	sum *= 0.8 + 0.4*b.baseline(team.Info)/100
	return max(sum, minStrength)
}

// contestStrength applies the team's contest bias to its contest strength.
func contestStrength(team *state.Team, minStrength float64) float64 {
	s := Strength(team, Contest, minStrength) * (1 + 0.15*team.Tactics.ContestBias)
	return max(s, minStrength)
}

// kickingQuality is the role-weighted mean of effective kicking in [0,1].
func kickingQuality(team *state.Team) float64 {
	sum, weights := 0.0, 0.0
	for _, p := range team.Players {
		if !p.OnField {
			continue
		}
		w := Forward.roleWeight(p.Static.Role)
		sum += w * p.Static.Attributes.Kicking / 100 * p.Effective()
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

// disciplineFactor scales turnovers conceded: 1.1 for discipline 0, 0.9 for 100.
func disciplineFactor(team *state.Team) float64 {
	sum, n := 0.0, 0
	for _, p := range team.Players {
		if p.OnField {
			sum += p.Static.Discipline
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return 1.1 - 0.2*(sum/float64(n))/100
}

// share is a's win probability against b: a^2/(a^2+b^2).
func share(a, b float64) float64 {
	a2, b2 := a*a, b*b
	if a2+b2 == 0 {
		return 0.5
	}
	return a2 / (a2 + b2)
}

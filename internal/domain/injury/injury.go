// Package injury draws new injuries for on-field players each tick.
//
// Composition:
// The per-tick probability for a player is a product of independent factors,
//
//	p = base * dt/60 * phaseRisk * fatigueFactor * durabilityFactor
//	fatigueFactor    = 1 + w * (1 - condition) / (1 - floor)
//	durabilityFactor = 60 / durability
//
// with durability clamped to [10,100] and p clamped to [0,1].
package injury

import (
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/rng"
	"github.com/okian/matchsim/internal/domain/state"
)

// Clock locates a tick in the match.
type Clock struct {
	Quarter int
	Second  int
}

var (
	severityWeights = []float64{0.40, 0.30, 0.18, 0.10, 0.02}
	bodyPartWeights = []float64{0.25, 0.12, 0.15, 0.20, 0.13, 0.15}
)

// Model evaluates injury risk for one match.
type Model struct {
	tuning  model.Tuning
	matchID string
	round   int
}

// New creates a Model. matchID and round are stamped on every record.
func New(tuning model.Tuning, matchID string, round int) *Model {
	return &Model{tuning: tuning, matchID: matchID, round: round}
}

// PhaseRisk scales injury probability by phase. Scoring and contested phases are riskiest.
func PhaseRisk(p model.Phase) float64 {
	switch p {
	case model.CenterBounce:
		return 1.3
	case model.BoundaryThrowIn:
		return 1.2
	case model.OpenPlay:
		return 1.0
	case model.Inside50:
		return 1.5
	case model.KickIn:
		return 0.6
	default:
		return 1.0
	}
}

// Probability is the chance that p is injured during dt seconds of phase.
func (m *Model) Probability(p *state.Player, phase model.Phase, dt int) float64 {
	headroom := 1 - m.tuning.FatigueFloor
	fatigueFactor := 1.0
	if headroom > 0 {
		fatigueFactor += m.tuning.FatigueRiskWeight * (1 - p.Condition) / headroom
	}
	durability := min(max(p.Static.Durability, 10), 100)
	prob := m.tuning.BaseInjuryRatePerMinute * float64(dt) / 60 * PhaseRisk(phase) * fatigueFactor * 60 / durability
	return min(max(prob, 0), 1)
}

// Step evaluates every on-field player of team in roster order. current is
// the number of injuries already recorded in the match; once current plus
// this tick's injuries reaches maxInjuries no further draws are made.
// Players forced off are replaced by the freshest eligible bench player.
func (m *Model) Step(team *state.Team, phase model.Phase, dt int, src *rng.Source, current, maxInjuries int, clock Clock) []model.InjuryRecord {
	if dt <= 0 {
		return nil
	}
	var records []model.InjuryRecord
	// Replacements brought on this tick are first evaluated next tick.
	for _, p := range team.OnField() {
		if current+len(records) >= maxInjuries {
			break
		}
		if !src.Chance(m.Probability(p, phase, dt)) {
			continue
		}
		records = append(records, m.injure(team, p, src, clock))
	}
	return records
}

func (m *Model) injure(team *state.Team, p *state.Player, src *rng.Source, clock Clock) model.InjuryRecord {
	severity := model.Severities()[src.WeightedIndex(severityWeights)]
	part := model.BodyParts()[src.WeightedIndex(bodyPartWeights)]

	p.InjuryMultiplier = min(max(p.InjuryMultiplier*severity.Multiplier(), 0), 1)
	out := model.ForcesOff(severity, part)
	team.NewInjuries++

	if out {
		p.InjuredOut = true
		p.OnField = false
		if sub := team.Freshest(); sub != nil {
			sub.OnField = true
			team.InjuryReplacements++
		}
	}

	return model.InjuryRecord{
		PlayerID:   p.Static.ID,
		TeamID:     team.Info.ID,
		MatchID:    m.matchID,
		Round:      m.round,
		Kind:       model.InjuryKind(severity, part),
		Severity:   severity,
		BodyPart:   part,
		Multiplier: severity.Multiplier(),
		InjuredOut: out,
		Quarter:    clock.Quarter,
		Second:     clock.Second,
	}
}

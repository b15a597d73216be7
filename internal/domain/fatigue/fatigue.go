// Package fatigue advances player condition and plans interchanges.
//
// Composition:
// On-field decay removes a fraction of the headroom above the floor each tick,
//
//	loss = (condition - floor) * (1 - exp(-k*dt/60))
//	k    = decay * phaseIntensity * 60/endurance * groundFactor * acceleration
//
// with endurance clamped to [10,100] and acceleration applied only below the
// fatigue threshold. All factors multiply. Condition approaches the floor but
// never reaches it. Bench recovery is linear and capped at 1.
package fatigue

import (
	"math"

	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/state"
)

// Interchange is one tactical rotation.
type Interchange struct {
	Out model.PlayerID `json:"out"`
	In  model.PlayerID `json:"in"`
}

// Rotation applies fatigue and interchanges for one match.
type Rotation struct {
	tuning model.Tuning
	ground model.Ground
}

// New creates a Rotation.
func New(tuning model.Tuning, ground model.Ground) *Rotation {
	return &Rotation{tuning: tuning, ground: ground}
}

// PhaseIntensity scales decay by how demanding a phase is.
func PhaseIntensity(p model.Phase) float64 {
	switch p {
	case model.CenterBounce:
		return 1.3
	case model.BoundaryThrowIn:
		return 1.2
	case model.OpenPlay:
		return 1.0
	case model.Inside50:
		return 1.15
	case model.KickIn:
		return 0.7
	default:
		return 1.0
	}
}

// QuarterTargets splits a match target across four quarters. The remainder
// goes to the earliest quarters.
func QuarterTargets(target int) [4]int {
	var out [4]int
	if target <= 0 {
		return out
	}
	for i := range out {
		out[i] = target / 4
		if i < target%4 {
			out[i]++
		}
	}
	return out
}

// Step advances team by dt seconds of phase and performs any interchanges
// due by elapsed seconds into quarter (1-based) of quarterLength seconds.
func (r *Rotation) Step(team *state.Team, phase model.Phase, dt, elapsed, quarter, quarterLength int) []Interchange {
	if dt <= 0 {
		return nil
	}
	r.advance(team, phase, dt)
	return r.rotate(team, elapsed, quarter, quarterLength)
}

func (r *Rotation) advance(team *state.Team, phase model.Phase, dt int) {
	minutes := float64(dt) / 60
	base := r.tuning.FatigueDecayPerMinute * PhaseIntensity(phase) * r.ground.FatigueFactor()
	for _, p := range team.Players {
		if p.InjuredOut {
			continue
		}
		if p.OnField {
			p.SecondsPlayed += dt
			k := base * 60 / clampEndurance(p.Static.Endurance)
			if p.Condition < r.tuning.FatigueThreshold {
				k *= r.tuning.FatigueAcceleration
			}
			headroom := p.Condition - r.tuning.FatigueFloor
			if headroom > 0 {
				p.Condition -= headroom * (1 - math.Exp(-k*minutes))
			}
			continue
		}
		p.Condition = min(1.0, p.Condition+r.tuning.BenchRecoveryPerMinute*minutes)
	}
}

func (r *Rotation) rotate(team *state.Team, elapsed, quarter, quarterLength int) []Interchange {
	if quarter < 1 || quarter > 4 || quarterLength <= 0 {
		return nil
	}
	planned := QuarterTargets(team.Tactics.TargetInterchanges)[quarter-1]
	due := planned * min(elapsed, quarterLength) / quarterLength

	var swaps []Interchange
	for team.QuarterInterchanges < due {
		out, in := team.MostFatigued(), team.Freshest()
		if out == nil || in == nil {
			break
		}
		out.OnField = false
		in.OnField = true
		team.QuarterInterchanges++
		team.Interchanges++
		swaps = append(swaps, Interchange{Out: out.Static.ID, In: in.Static.ID})
	}
	return swaps
}

func clampEndurance(e float64) float64 {
	return min(max(e, 10), 100)
}

// Package phase resolves one tick of play.
//
// The machine holds the single active phase and the side in possession.
// Each call to Resolve draws an outcome for the active phase from team
// strengths computed on the state as it stood at the start of the tick, then
// moves to the next phase. Every phase can be reached from every other and
// none is terminal; the orchestrator ends the match.
package phase

import (
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/rng"
	"github.com/okian/matchsim/internal/domain/state"
)

// ScoreKind is the scoring result of a tick.
type ScoreKind int

// Score kinds.
const (
	NoScore ScoreKind = iota
	Goal
	Behind
)

func (k ScoreKind) String() string {
	switch k {
	case NoScore:
		return "none"
	case Goal:
		return "goal"
	case Behind:
		return "behind"
	default:
		return "unknown"
	}
}

// Outcome describes a resolved tick.
type Outcome struct {
	// Phase is the phase that was resolved.
	Phase model.Phase
	// Next is the phase active for the following tick.
	Next model.Phase
	// Possession is the side in possession after the tick.
	Possession model.Side
	Score      ScoreKind
	// Scorer is the scoring side when Score is not NoScore.
	Scorer model.Side
}

// Open play and forward-line weights. Entry and shot weights scale with how
// much the attack beats the defence and how sharp the attackers are.
const (
	retainWeight   = 0.70
	entryWeight    = 0.12
	turnoverWeight = 0.12
	boundaryWeight = 0.06
	chainWeight    = 0.02

	shotWeight        = 0.45
	reboundWeight     = 0.35
	heldWeight        = 0.15
	forwardOutWeight  = 0.05
	kickInClearWeight = 0.75
	kickInLossWeight  = 0.25
	kickInOutWeight   = 0.05

	contestBiasEffect = 0.15
	entryRiskEffect   = 0.3
	lossRiskEffect    = 0.2
	shotRiskPenalty   = 0.03
	longChainSeconds  = 60
)

// Machine is the phase state machine for one match. It is not safe for
// concurrent use.
type Machine struct {
	weather       model.Weather
	minStrength   float64
	phase         model.Phase
	possession    model.Side
	sinceStoppage int
}

// New creates a Machine waiting on a center bounce.
func New(weather model.Weather, minStrength float64) *Machine {
	return &Machine{weather: weather, minStrength: minStrength, phase: model.CenterBounce}
}

// Phase returns the active phase.
func (m *Machine) Phase() model.Phase { return m.phase }

// Possession returns the side in possession.
func (m *Machine) Possession() model.Side { return m.possession }

// SinceStoppage returns the seconds of play since the last stoppage.
func (m *Machine) SinceStoppage() int { return m.sinceStoppage }

// Reset starts a quarter with a center bounce.
func (m *Machine) Reset() {
	m.phase = model.CenterBounce
	m.possession = model.Home
	m.sinceStoppage = 0
}

// Resolve plays dt seconds of the active phase.
func (m *Machine) Resolve(home, away *state.Team, src *rng.Source, dt int) Outcome {
	out := Outcome{Phase: m.phase, Possession: m.possession}
	teams := [2]*state.Team{home, away}

	switch m.phase {
	case model.CenterBounce, model.BoundaryThrowIn:
		m.contest(home, away, src, &out)
	case model.OpenPlay:
		m.openPlay(teams[m.possession], teams[m.possession.Other()], src, &out)
	case model.Inside50:
		m.inside50(teams[m.possession], teams[m.possession.Other()], src, &out)
	case model.KickIn:
		m.kickIn(teams[m.possession], teams[m.possession.Other()], src, &out)
	}

	if out.Next.IsContested() || out.Next == model.KickIn {
		m.sinceStoppage = 0
	} else {
		m.sinceStoppage += dt
	}
	m.phase = out.Next
	m.possession = out.Possession
	return out
}

func (m *Machine) contest(home, away *state.Team, src *rng.Source, out *Outcome) {
	h := contestStrength(home, m.minStrength)
	a := contestStrength(away, m.minStrength)
	out.Possession = model.Away
	if src.Chance(share(h, a)) {
		out.Possession = model.Home
	}
	out.Next = model.OpenPlay
}

func (m *Machine) openPlay(att, def *state.Team, src *rng.Source, out *Outcome) {
	q := share(Strength(att, Attack, m.minStrength), Strength(def, Defence, m.minStrength))
	risk := att.Tactics.KickingRisk
	chain := min(float64(m.sinceStoppage)/longChainSeconds, 1)

	weights := []float64{
		retainWeight,
		entryWeight * 2 * q * att.Sharpness() * (1 + entryRiskEffect*risk),
		turnoverWeight * 2 * (1 - q) * (1 + lossRiskEffect*risk) * disciplineFactor(att),
		boundaryWeight + chainWeight*chain,
	}
	switch src.WeightedIndex(weights) {
	case 0:
		out.Next = model.OpenPlay
	case 1:
		out.Next = model.Inside50
	case 2:
		out.Next = model.OpenPlay
		out.Possession = att.Side.Other()
	default:
		out.Next = model.BoundaryThrowIn
	}
}

func (m *Machine) inside50(att, def *state.Team, src *rng.Source, out *Outcome) {
	q := share(Strength(att, Forward, m.minStrength), Strength(def, Back, m.minStrength))
	weights := []float64{
		shotWeight * 2 * q * att.Sharpness(),
		reboundWeight * 2 * (1 - q),
		heldWeight,
		forwardOutWeight,
	}
	switch src.WeightedIndex(weights) {
	case 0:
		m.shot(att, src, out)
	case 1:
		out.Next = model.OpenPlay
		out.Possession = att.Side.Other()
	case 2:
		out.Next = model.Inside50
	default:
		out.Next = model.BoundaryThrowIn
	}
}

// shot resolves a set shot from the attacking side into a goal, a behind or
// an out-of-bounds miss.
func (m *Machine) shot(att *state.Team, src *rng.Source, out *Outcome) {
	goal := 0.30 + 0.40*kickingQuality(att) - m.weather.AccuracyPenalty() - shotRiskPenalty*att.Tactics.KickingRisk
	goal = min(max(goal, 0.05), 0.9)
	behind := (1 - goal) * 0.8

	switch src.WeightedIndex([]float64{goal, behind, 1 - goal - behind}) {
	case 0:
		out.Score, out.Scorer = Goal, att.Side
		out.Next = model.CenterBounce
		out.Possession = att.Side.Other()
	case 1:
		out.Score, out.Scorer = Behind, att.Side
		out.Next = model.KickIn
		out.Possession = att.Side.Other()
	default:
		out.Next = model.BoundaryThrowIn
	}
}

func (m *Machine) kickIn(att, def *state.Team, src *rng.Source, out *Outcome) {
	q := share(Strength(att, Attack, m.minStrength), Strength(def, Defence, m.minStrength))
	weights := []float64{
		kickInClearWeight * (0.5 + q),
		kickInLossWeight * (1.5 - q),
		kickInOutWeight,
	}
	switch src.WeightedIndex(weights) {
	case 0:
		out.Next = model.OpenPlay
	case 1:
		out.Next = model.OpenPlay
		out.Possession = att.Side.Other()
	default:
		out.Next = model.BoundaryThrowIn
	}
}

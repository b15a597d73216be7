package model

// Tactics biases a team's rotation and contest play for one match.
type Tactics struct {
	// TargetInterchanges is the number of rotations planned for the match.
	TargetInterchanges int `json:"target_interchanges"`
	// ContestBias in [-1,1] trades contest strength for open play.
	ContestBias float64 `json:"contest_bias"`
	// KickingRisk in [-1,1] raises forward entries and turnovers together.
	KickingRisk float64 `json:"kicking_risk"`
}

// DefaultInterchanges is the rotation target of neutral tactics.
const DefaultInterchanges = 40

// DefaultTactics returns neutral tactics.
func DefaultTactics() Tactics {
	return Tactics{TargetInterchanges: DefaultInterchanges}
}

// ResolveTactics returns t with weights clamped to range, or neutral tactics
// using defaultInterchanges when t is nil.
func ResolveTactics(t *Tactics, defaultInterchanges int) Tactics {
	if t == nil {
		d := DefaultTactics()
		d.TargetInterchanges = defaultInterchanges
		return d
	}
	out := *t
	if out.TargetInterchanges < 0 {
		out.TargetInterchanges = 0
	}
	out.ContestBias = clamp(out.ContestBias, -1, 1)
	out.KickingRisk = clamp(out.KickingRisk, -1, 1)
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

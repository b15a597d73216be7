package model

// Phase is the state of play for one tick. Exactly one phase is active
// for the whole match at a time.
type Phase int

// Phases.
const (
	CenterBounce Phase = iota
	OpenPlay
	Inside50
	BoundaryThrowIn
	KickIn
)

var phaseNames = []string{"center_bounce", "open_play", "inside_50", "boundary_throw_in", "kick_in"}

// Phases returns every phase in declaration order.
func Phases() []Phase {
	return []Phase{CenterBounce, OpenPlay, Inside50, BoundaryThrowIn, KickIn}
}

func (p Phase) String() string { return enumName(phaseNames, int(p)) }

// IsContested reports whether the phase is a contested restart.
func (p Phase) IsContested() bool {
	return p == CenterBounce || p == BoundaryThrowIn
}

// IsScoringZone reports whether shots at goal happen in the phase.
func (p Phase) IsScoringZone() bool {
	return p == Inside50
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(b []byte) error {
	v, err := parseEnum[Phase]("phase", phaseNames, string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

package model

import (
	"fmt"
	"strings"
)

// Severity classifies an injury.
type Severity int

// Severities, mildest first.
const (
	Niggle Severity = iota
	Minor
	Moderate
	Severe
	SeasonEnding
)

var severityNames = []string{"niggle", "minor", "moderate", "severe", "season_ending"}

// Severities returns every severity in declaration order.
func Severities() []Severity {
	return []Severity{Niggle, Minor, Moderate, Severe, SeasonEnding}
}

func (s Severity) String() string { return enumName(severityNames, int(s)) }

// Multiplier is the performance factor an injury of this severity applies.
func (s Severity) Multiplier() float64 {
	switch s {
	case Niggle:
		return 0.95
	case Minor:
		return 0.85
	case Moderate:
		return 0.6
	case Severe:
		return 0.25
	case SeasonEnding:
		return 0
	default:
		return 1
	}
}

// ForcesOff reports whether the severity removes a player for the rest of the match.
func (s Severity) ForcesOff() bool {
	switch s {
	case Niggle, Minor:
		return false
	case Moderate, Severe, SeasonEnding:
		return true
	default:
		return false
	}
}

// RecoveryRounds is how many rounds an injury stays active in history.
func (s Severity) RecoveryRounds() int {
	switch s {
	case Niggle:
		return 1
	case Minor:
		return 2
	case Moderate:
		return 4
	case Severe:
		return 8
	case SeasonEnding:
		return 24
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := parseEnum[Severity]("severity", severityNames, string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// BodyPart is where an injury is.
type BodyPart int

// Body parts.
const (
	Hamstring BodyPart = iota
	Groin
	Knee
	Ankle
	Shoulder
	Head
)

var bodyPartNames = []string{"hamstring", "groin", "knee", "ankle", "shoulder", "head"}

// BodyParts returns every body part in declaration order.
func BodyParts() []BodyPart {
	return []BodyPart{Hamstring, Groin, Knee, Ankle, Shoulder, Head}
}

func (b BodyPart) String() string { return enumName(bodyPartNames, int(b)) }

// Ailment is the usual injury name for the body part.
func (b BodyPart) Ailment() string {
	switch b {
	case Hamstring, Groin:
		return "strain"
	case Knee, Ankle:
		return "sprain"
	case Shoulder:
		return "separation"
	case Head:
		return "concussion"
	default:
		return "injury"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (b BodyPart) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *BodyPart) UnmarshalText(text []byte) error {
	v, err := parseEnum[BodyPart]("body part", bodyPartNames, string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// ForcesOff reports whether an injury of severity s to part b ends the
// player's match. Any head knock above a niggle does.
func ForcesOff(s Severity, b BodyPart) bool {
	return s.ForcesOff() || (b == Head && s > Niggle)
}

// InjuryKind describes an injury, e.g. "minor hamstring strain".
func InjuryKind(s Severity, b BodyPart) string {
	return fmt.Sprintf("%s %s %s", strings.ReplaceAll(s.String(), "_", "-"), b, b.Ailment())
}

// InjuryRecord is one injury suffered in a match.
type InjuryRecord struct {
	PlayerID   PlayerID `json:"player_id"`
	TeamID     TeamID   `json:"team_id"`
	MatchID    string   `json:"match_id,omitempty"`
	Round      int      `json:"round"`
	Kind       string   `json:"kind"`
	Severity   Severity `json:"severity"`
	BodyPart   BodyPart `json:"body_part"`
	Multiplier float64  `json:"multiplier"`
	InjuredOut bool     `json:"injured_out"`
	Quarter    int      `json:"quarter"`
	Second     int      `json:"second"`
}

// InjuryHistory lists known injuries per player.
type InjuryHistory map[PlayerID][]InjuryRecord

// StartingMultiplier is the product of the player's listed multipliers,
// clamped to [0,1]. A player without history starts at 1.
func (h InjuryHistory) StartingMultiplier(id PlayerID) float64 {
	m := 1.0
	for _, r := range h[id] {
		m *= r.Multiplier
	}
	return clamp(m, 0, 1)
}

// Active returns the injuries from earlier rounds still affecting play in
// round. Injuries that forced a player off leave the player unavailable
// (multiplier 0) until recovered. The receiver is not modified.
func (h InjuryHistory) Active(round int) InjuryHistory {
	out := make(InjuryHistory)
	for id, records := range h {
		for _, r := range records {
			if r.Round >= round || round-r.Round >= r.Severity.RecoveryRounds() {
				continue
			}
			if r.InjuredOut {
				r.Multiplier = 0
			}
			out[id] = append(out[id], r)
		}
	}
	return out
}

// Add appends records to the history.
func (h InjuryHistory) Add(records ...InjuryRecord) {
	for _, r := range records {
		h[r.PlayerID] = append(h[r.PlayerID], r)
	}
}

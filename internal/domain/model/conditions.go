package model

// Weather is the match-day weather. It slightly lowers goal accuracy.
type Weather int

// Weather kinds.
const (
	Fine Weather = iota
	Overcast
	Windy
	Rain
	Storm
)

var weatherNames = []string{"fine", "overcast", "windy", "rain", "storm"}

func (w Weather) String() string { return enumName(weatherNames, int(w)) }

// AccuracyPenalty is subtracted from the goal probability of a shot.
func (w Weather) AccuracyPenalty() float64 {
	switch w {
	case Fine:
		return 0
	case Overcast:
		return 0.01
	case Windy:
		return 0.04
	case Rain:
		return 0.05
	case Storm:
		return 0.08
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (w Weather) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *Weather) UnmarshalText(b []byte) error {
	v, err := parseEnum[Weather]("weather", weatherNames, string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Ground is the playing surface. Heavier grounds tire players faster.
type Ground int

// Ground conditions.
const (
	Good Ground = iota
	Firm
	Soft
	Heavy
)

var groundNames = []string{"good", "firm", "soft", "heavy"}

func (g Ground) String() string { return enumName(groundNames, int(g)) }

// FatigueFactor scales on-field condition decay.
func (g Ground) FatigueFactor() float64 {
	switch g {
	case Good:
		return 1.0
	case Firm:
		return 0.95
	case Soft:
		return 1.08
	case Heavy:
		return 1.15
	default:
		return 1.0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Ground) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Ground) UnmarshalText(b []byte) error {
	v, err := parseEnum[Ground]("ground", groundNames, string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

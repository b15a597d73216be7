package model

// Role is a player's primary position.
type Role int

// Roles.
const (
	Defender Role = iota
	Midfielder
	Ruck
	Forward
	Utility
)

var roleNames = []string{"defender", "midfielder", "ruck", "forward", "utility"}

func (r Role) String() string { return enumName(roleNames, int(r)) }

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := parseEnum[Role]("role", roleNames, string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// Attributes is a player's skill bundle. Each score is on a 0-100 scale.
type Attributes struct {
	Clearance      float64 `json:"clearance"`
	Kicking        float64 `json:"kicking"`
	Marking        float64 `json:"marking"`
	Strength       float64 `json:"strength"`
	Positioning    float64 `json:"positioning"`
	DecisionMaking float64 `json:"decision_making"`
	Tackling       float64 `json:"tackling"`
	WorkRate       float64 `json:"work_rate"`
}

// Player is the static description of a player. The engine never mutates it.
type Player struct {
	ID         PlayerID   `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Attributes Attributes `json:"attributes"`
	Endurance  float64    `json:"endurance"`
	Durability float64    `json:"durability"`
	Discipline float64    `json:"discipline"`
}

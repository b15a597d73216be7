package model

// Team is a club's identity and aggregate baselines (0-100).
type Team struct {
	ID      TeamID  `json:"id"`
	Name    string  `json:"name"`
	Offense float64 `json:"offense"`
	Defense float64 `json:"defense"`
}

// Roster is a team's players in selection order. The first players
// available to play start on the field.
type Roster []Player

// IDs returns the player ids in roster order.
func (r Roster) IDs() []PlayerID {
	ids := make([]PlayerID, len(r))
	for i, p := range r {
		ids[i] = p.ID
	}
	return ids
}

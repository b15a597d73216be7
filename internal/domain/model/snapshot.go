package model

// Snapshot is an immutable view of a match at the end of a tick.
type Snapshot struct {
	MatchID          string  `json:"match_id"`
	Tick             int     `json:"tick"`
	Quarter          int     `json:"quarter"`
	TimeRemaining    int     `json:"time_remaining"`
	Phase            Phase   `json:"phase"`
	HomeScore        Score   `json:"home_score"`
	AwayScore        Score   `json:"away_score"`
	HomeInterchanges int     `json:"home_interchanges"`
	AwayInterchanges int     `json:"away_interchanges"`
	HomeInjuries     int     `json:"home_injuries"`
	AwayInjuries     int     `json:"away_injuries"`
	HomeCondition    float64 `json:"home_condition"`
	AwayCondition    float64 `json:"away_condition"`
	Final            bool    `json:"final"`
}

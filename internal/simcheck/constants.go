package simcheck

import "time"

// Defaults applied to zero config values.
const (
	DefaultTeams        = 18
	DefaultRounds       = 3
	DefaultPollInterval = 250 * time.Millisecond
	DefaultRoundTimeout = 5 * time.Minute
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

const maxSeed = 1<<31 - 1

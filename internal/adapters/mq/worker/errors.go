package worker

import "errors"

// ErrSimulationPanic wraps a panic recovered while simulating a job.
var ErrSimulationPanic = errors.New("simulation panicked")

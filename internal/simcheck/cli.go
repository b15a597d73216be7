package simcheck

import (
	"fmt"
	"os"

	"github.com/okian/matchsim/pkg/logger"
)

// SetupLogging initializes the global logger. Verbose runs log at debug.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information for the sim-check tool.
func ShowHelp() {
	os.Stdout.WriteString(`matchsim determinism check
==========================

Plays generated rounds against a running matchsim service, then replays
every match synchronously with the same seed and checks that the scores,
player summaries and injuries are identical. Replays leave the injury
history untouched, but the generated rounds still update the ladder and the
history, so point it at a disposable instance.

Usage:
  go run ./cmd/sim-check [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -teams int
        Number of generated teams (default 18)
  -rounds int
        Number of rounds to play (default 3)
  -seed int
        League and fixture seed (default 1)
  -quarter int
        Quarter length in seconds, 0 for the server default
  -workers int
        Concurrent replays (default CPU cores)
  -timeout duration
        HTTP request timeout (default 2m)
  -round-timeout duration
        How long to wait for each round (default 5m)
  -output string
        Output file for the generated rounds
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Check with default settings
  go run ./cmd/sim-check

  # Quick check with short quarters
  go run ./cmd/sim-check -teams 8 -rounds 2 -quarter 300 -url http://localhost:8080
`)
}

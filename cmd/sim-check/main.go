package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/matchsim/internal/simcheck"
)

// Default configuration constants.
const (
	defaultTimeout      = 2 * time.Minute
	defaultCheckTimeout = 30 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		teams        = flag.Int("teams", simcheck.DefaultTeams, "Number of generated teams")
		rounds       = flag.Int("rounds", simcheck.DefaultRounds, "Number of rounds to play")
		seed         = flag.Int64("seed", 1, "League and fixture seed")
		quarter      = flag.Int("quarter", 0, "Quarter length in seconds, 0 for the server default")
		workers      = flag.Int("workers", runtime.NumCPU(), "Concurrent replays")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		roundTimeout = flag.Duration("round-timeout", simcheck.DefaultRoundTimeout, "How long to wait for each round")
		outputFile   = flag.String("output", "", "Output file for the generated rounds")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simcheck.ShowHelp()
		return
	}

	if err := simcheck.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCheckTimeout)
	defer cancel()

	config := &simcheck.Config{
		BaseURL:       *baseURL,
		Teams:         *teams,
		Rounds:        *rounds,
		Seed:          *seed,
		QuarterLength: *quarter,
		Workers:       *workers,
		Timeout:       *timeout,
		RoundTimeout:  *roundTimeout,
		OutputFile:    *outputFile,
		Verbose:       *verbose,
	}

	if _, err := simcheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Check failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

package simcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
)

// ErrNotDeterministic is returned when a replayed match differs from the
// round it was first played in.
var ErrNotDeterministic = errors.New("replayed matches differ from their rounds")

// Run executes the complete determinism check.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting matchsim determinism check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("teams", config.Teams),
		logger.Int("rounds", config.Rounds),
		logger.Int64("seed", config.Seed),
		logger.Int("workers", config.Workers),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate the league and its rounds
	rounds, err := generateRounds(ctx, config)
	if err != nil {
		return stats, fmt.Errorf("round generation failed: %w", err)
	}

	// Step 3: Play every round and replay its matches
	for _, r := range rounds {
		if err := playRound(ctx, config, client, r, stats); err != nil {
			return stats, fmt.Errorf("round %d: %w", r.Number, err)
		}
	}

	// Step 4: Check the ladder
	standings, err := client.ladder(ctx, config.Teams)
	if err != nil {
		return stats, fmt.Errorf("ladder retrieval failed: %w", err)
	}
	stats.LadderTeams = len(standings)
	if err := verifyLadder(standings, config.Rounds); err != nil {
		// A server that already held rounds reports more matches played.
		log.Warn(ctx, "ladder consistency warning", logger.Error(err))
	}
	displayLadder(ctx, standings, config.Verbose)

	// Step 5: Save rounds to file
	if config.OutputFile != "" {
		if err := saveRounds(ctx, config.OutputFile, rounds); err != nil {
			log.Warn(ctx, "failed to save rounds to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if len(stats.Mismatches) > 0 {
		return stats, fmt.Errorf("%d matches: %w", len(stats.Mismatches), ErrNotDeterministic)
	}
	log.Info(ctx, "check completed successfully")
	return stats, nil
}

func applyDefaults(config *Config) {
	if config.Teams == 0 {
		config.Teams = DefaultTeams
	}
	if config.Rounds <= 0 {
		config.Rounds = DefaultRounds
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.RoundTimeout <= 0 {
		config.RoundTimeout = DefaultRoundTimeout
	}
}

// playRound submits r, waits for it and replays every fixture
// synchronously, comparing each replay with the stored result.
func playRound(ctx context.Context, config *Config, client *HTTPClient, r Round, stats *Stats) error {
	log := logger.Get()

	submitted, err := client.submitRound(ctx, r.Request)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	stats.RoundsSubmitted++

	status, err := client.waitForRound(ctx, submitted.ID, config.PollInterval, config.RoundTimeout)
	if err != nil {
		return err
	}
	stats.MatchesPlayed += status.Completed
	stats.MatchesFailed += status.Failed
	log.Info(ctx, "round played",
		logger.Int("round", r.Number),
		logger.String("roundID", status.ID),
		logger.String("status", status.Status),
		logger.Int("completed", status.Completed),
		logger.Int("failed", status.Failed))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, f := range r.Request.Fixtures {
		if _, failed := status.Errors[f.MatchID]; failed {
			continue
		}
		g.Go(func() error {
			original, err := client.result(gctx, f.MatchID)
			if err != nil {
				return err
			}
			replayed, err := client.simulate(gctx, replayRequest(r, f))
			if err != nil {
				return err
			}

			fields := compareResults(original, replayed)
			mu.Lock()
			defer mu.Unlock()
			stats.MatchesReplayed++
			if len(fields) > 0 {
				stats.Mismatches = append(stats.Mismatches, Mismatch{Round: r.Number, MatchID: f.MatchID, Fields: fields})
				log.Error(gctx, "replay mismatch",
					logger.String("matchID", f.MatchID),
					logger.Any("fields", fields))
			} else if config.Verbose {
				log.Info(gctx, "replay matched",
					logger.String("matchID", f.MatchID),
					logger.String("home", original.Home.String()),
					logger.String("away", original.Away.String()),
					logger.String("winner", winnerName(original)))
			}
			return nil
		})
	}
	return g.Wait()
}

// saveRounds writes the generated rounds as JSON so a run can be inspected
// or resubmitted by hand.
func saveRounds(ctx context.Context, filename string, rounds []Round) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(rounds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rounds: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "rounds saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final check statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var matchesPerSecond float64
	if stats.Duration > 0 {
		matchesPerSecond = float64(stats.MatchesPlayed+stats.MatchesReplayed) / stats.Duration.Seconds()
	}
	logger.Get().Info(ctx, "final statistics",
		logger.Int("roundsSubmitted", stats.RoundsSubmitted),
		logger.Int("matchesPlayed", stats.MatchesPlayed),
		logger.Int("matchesReplayed", stats.MatchesReplayed),
		logger.Int("matchesFailed", stats.MatchesFailed),
		logger.Int("mismatches", len(stats.Mismatches)),
		logger.Int("ladderTeams", stats.LadderTeams),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("matchesPerSecond", matchesPerSecond))
}

// winnerName renders a result's winner for logs.
func winnerName(res model.MatchResult) string { //nolint:gocritic // hugeParam
	if res.IsDraw {
		return "draw"
	}
	return fmt.Sprintf("team %d", res.Winner)
}

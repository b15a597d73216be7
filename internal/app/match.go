package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/matchsim/internal/adapters/replay"
	"github.com/okian/matchsim/internal/domain/arena"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/internal/domain/rng"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
)

// SimulateMatch plays one match synchronously, stores its result and records
// its injuries unless req.SkipHistory is set. Recording replaces any earlier
// injuries of the same match id. Extra sinks receive every snapshot.
func (s *Service) SimulateMatch(ctx context.Context, req MatchRequest, sinks ...match.Sink) (model.MatchResult, error) { //nolint:gocritic // hugeParam
	if _, err := s.activeQueue(); err != nil {
		return model.MatchResult{}, err
	}

	l, err := newLeague(req.Teams)
	if err != nil {
		return model.MatchResult{}, err
	}
	if req.MatchID == "" {
		req.MatchID = uuid.NewString()
	}

	history := s.loadHistory(ctx, l.players, req.Round)
	mreq, err := s.request(l, req.Round, req.Fixture, history)
	if err != nil {
		return model.MatchResult{}, err
	}
	mreq.Sinks = sinks

	res, err := s.simulate(ctx, mreq)
	if err != nil {
		return model.MatchResult{}, err
	}
	if err := s.results.Save(ctx, res); err != nil {
		return res, fmt.Errorf("save result: %w", err)
	}
	if !req.SkipHistory {
		s.recordInjuries(ctx, res)
	}
	return res, nil
}

// request builds and validates the engine request for one fixture.
func (s *Service) request(l league, round int, f Fixture, history model.InjuryHistory) (match.Request, error) { //nolint:gocritic // hugeParam
	if f.HomeTeamID == f.AwayTeamID {
		metrics.RecordSimulationError("self_play")
		return match.Request{}, fmt.Errorf("%w: team %d: %w", ErrInvalidRequest, f.HomeTeamID, match.ErrSelfPlay)
	}
	for _, id := range []model.TeamID{f.HomeTeamID, f.AwayTeamID} {
		if !l.teams.Has(id) {
			metrics.RecordSimulationError("unknown_team")
			return match.Request{}, fmt.Errorf("%w: %w: %d", ErrInvalidRequest, ErrUnknownTeam, id)
		}
	}

	quarter := f.QuarterLengthSeconds
	if quarter == 0 {
		quarter = s.quarterLength
	}
	seed := rng.DeriveSeed(f.MatchID)
	if f.Seed != nil {
		seed = *f.Seed
	}
	tuning := s.tuning

	req := match.Request{
		MatchID:              f.MatchID,
		Round:                round,
		HomeTeamID:           f.HomeTeamID,
		AwayTeamID:           f.AwayTeamID,
		Teams:                l.teams,
		Rosters:              l.rosters,
		Tactics:              l.tactics,
		Weather:              f.Weather,
		Ground:               f.Ground,
		QuarterLengthSeconds: quarter,
		QuarterLengths:       f.QuarterLengths,
		Seed:                 seed,
		Tuning:               &tuning,
		InjuryHistory:        history,
	}
	if err := match.Validate(req); err != nil {
		metrics.RecordSimulationError(failureReason(err))
		return match.Request{}, fmt.Errorf("%w: match %s: %w", ErrInvalidRequest, f.MatchID, err)
	}
	return req, nil
}

// simulate runs one match with the service sinks attached.
func (s *Service) simulate(ctx context.Context, req match.Request) (model.MatchResult, error) { //nolint:gocritic // hugeParam
	ctx, span := s.tracer.Start(ctx, "match.simulate", trace.WithAttributes(
		attribute.String("match.id", req.MatchID),
		attribute.Int("match.round", req.Round),
		attribute.Int("match.home_team", int(req.HomeTeamID)),
		attribute.Int("match.away_team", int(req.AwayTeamID)),
		attribute.Int64("match.seed", req.Seed),
	))
	defer span.End()

	sinks := append([]match.Sink(nil), req.Sinks...)
	if s.hub != nil {
		sinks = append(sinks, s.hub)
	}
	var recorder *replay.Writer
	if s.replayDir != "" {
		w, _, err := replay.NewWriter(s.replayDir, req.MatchID, s.clock)
		if err != nil {
			metrics.RecordErrorByComponent("replay", "open")
			s.logger.Warn(ctx, "replay disabled for match",
				logger.String("match_id", req.MatchID),
				logger.Error(err),
			)
		} else {
			recorder = w
			sinks = append(sinks, w)
		}
	}
	req.Sinks = sinks

	start := time.Now()
	res, err := s.engine.Simulate(ctx, req)
	elapsed := time.Since(start)

	if recorder != nil {
		if cerr := recorder.Close(); cerr != nil {
			metrics.RecordErrorByComponent("replay", "close")
			s.logger.Warn(ctx, "failed to finish replay", logger.String("match_id", req.MatchID), logger.Error(cerr))
		}
		if err != nil {
			_ = os.RemoveAll(recorder.Directory())
		}
	}

	if err != nil {
		metrics.RecordSimulationError(failureReason(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return model.MatchResult{}, err
	}

	recordMatchMetrics(res, elapsed)
	span.SetAttributes(
		attribute.Int("match.home_points", res.Home.Points()),
		attribute.Int("match.away_points", res.Away.Points()),
		attribute.Int("match.ticks", res.Ticks),
		attribute.Int("match.injuries", len(res.Injuries)),
	)
	return res, nil
}

func recordMatchMetrics(res model.MatchResult, elapsed time.Duration) { //nolint:gocritic // hugeParam
	outcome := "away"
	switch {
	case res.IsDraw:
		outcome = "draw"
	case res.Winner == res.HomeTeamID:
		outcome = "home"
	}
	metrics.RecordMatchSimulated(outcome)
	metrics.RecordSimulationDuration(float64(elapsed.Microseconds()) / 1000)
	metrics.RecordTicks(res.Ticks)
	metrics.RecordScore("goal", res.Home.Goals+res.Away.Goals)
	metrics.RecordScore("behind", res.Home.Behinds+res.Away.Behinds)
	metrics.RecordInterchanges(res.HomeSummary.Interchanges + res.AwaySummary.Interchanges)
	metrics.RecordInjuryReplacements(res.HomeSummary.InjuryReplacements + res.AwaySummary.InjuryReplacements)
	for _, inj := range res.Injuries {
		metrics.RecordInjury(inj.Severity.String())
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, match.ErrSelfPlay):
		return "self_play"
	case errors.Is(err, match.ErrInsufficientRoster):
		return "insufficient_roster"
	case errors.Is(err, match.ErrInvalidQuarterLength):
		return "quarter_length"
	case errors.Is(err, model.ErrInvalidTuning):
		return "tuning"
	case errors.Is(err, arena.ErrNotFound):
		return "unknown_team"
	default:
		return "other"
	}
}

// loadHistory returns the injuries still active in round. A failing store
// yields no history.
func (s *Service) loadHistory(ctx context.Context, players []model.PlayerID, round int) model.InjuryHistory {
	h, err := s.injuries.Load(ctx, players)
	if err != nil {
		metrics.RecordInjuryHistoryError("load")
		s.logger.Warn(ctx, "injury history unavailable, simulating without it", logger.Error(err))
		return nil
	}
	return h.Active(round)
}

func (s *Service) recordInjuries(ctx context.Context, res model.MatchResult) { //nolint:gocritic // hugeParam
	if len(res.Injuries) == 0 {
		return
	}
	if err := s.injuries.Record(ctx, res.Injuries); err != nil {
		metrics.RecordInjuryHistoryError("record")
		s.logger.Warn(ctx, "failed to record injuries",
			logger.String("match_id", res.MatchID),
			logger.Error(err),
		)
	}
}

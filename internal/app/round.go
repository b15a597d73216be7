package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/matchsim/internal/adapters/mq/queue"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
)

// SubmitRound validates every fixture and queues the round for background
// simulation. Nothing is queued when any fixture is invalid or the queue
// cannot take the whole round.
func (s *Service) SubmitRound(ctx context.Context, req RoundRequest) (RoundStatus, error) {
	q, err := s.activeQueue()
	if err != nil {
		return RoundStatus{}, err
	}

	ctx, span := s.tracer.Start(ctx, "round.submit", trace.WithAttributes(
		attribute.Int("round.number", req.Round),
		attribute.Int("round.fixtures", len(req.Fixtures)),
	))
	defer span.End()

	if len(req.Fixtures) == 0 {
		return RoundStatus{}, fmt.Errorf("%w: no fixtures", ErrInvalidRequest)
	}
	l, err := newLeague(req.Teams)
	if err != nil {
		return RoundStatus{}, err
	}

	roundID := uuid.NewString()
	span.SetAttributes(attribute.String("round.id", roundID))

	// One team plays at most once per round and match ids are unique.
	playing := make(map[model.TeamID]struct{}, 2*len(req.Fixtures))
	matchIDs := make(map[string]struct{}, len(req.Fixtures))

	history := s.loadHistory(ctx, l.players, req.Round)
	jobs := make([]queue.Job, len(req.Fixtures))
	for i, f := range req.Fixtures {
		if f.MatchID == "" {
			f.MatchID = fmt.Sprintf("%s-m%d", roundID, i+1)
		}
		if _, dup := matchIDs[f.MatchID]; dup {
			return RoundStatus{}, fmt.Errorf("%w: duplicate match id %q", ErrInvalidRequest, f.MatchID)
		}
		matchIDs[f.MatchID] = struct{}{}

		mreq, err := s.request(l, req.Round, f, history)
		if err != nil {
			return RoundStatus{}, fmt.Errorf("fixture %d: %w", i+1, err)
		}
		for _, id := range []model.TeamID{f.HomeTeamID, f.AwayTeamID} {
			if _, dup := playing[id]; dup {
				return RoundStatus{}, fmt.Errorf("%w: %w: team %d plays twice", ErrInvalidRequest, ErrDuplicateTeam, id)
			}
			playing[id] = struct{}{}
		}

		jobs[i] = queue.Job{ID: uuid.NewString(), RoundID: roundID, Request: mreq}
	}

	if free := q.Capacity() - q.Len(ctx); free < len(jobs) {
		metrics.RecordQueueEnqueueError()
		return RoundStatus{}, fmt.Errorf("%d matches, %d free slots: %w", len(jobs), free, ErrBackpressure)
	}

	status := &RoundStatus{
		ID:          roundID,
		Round:       req.Round,
		Status:      RoundPending,
		Total:       len(jobs),
		MatchIDs:    make([]string, len(jobs)),
		SubmittedAt: s.clock().UTC(),
	}
	for i, j := range jobs {
		status.MatchIDs[i] = j.Request.MatchID
	}

	s.roundsMu.Lock()
	s.rounds[roundID] = status
	snapshot := status.clone()
	s.roundsMu.Unlock()

	metrics.RecordRoundSubmitted()
	for _, j := range jobs {
		metrics.UpdateMatchesPending(int(s.pending.Add(1)))
		if err := q.Enqueue(ctx, j); err != nil {
			// Lost a race for the last slots with another submitter.
			s.Failed(ctx, j, err)
		}
	}

	s.logger.Info(ctx, "round submitted",
		logger.String("round_id", roundID),
		logger.Int("round", req.Round),
		logger.Int("matches", len(jobs)),
	)
	return snapshot, nil
}

// Round returns the progress of a submitted round.
func (s *Service) Round(_ context.Context, id string) (RoundStatus, error) {
	s.roundsMu.RLock()
	defer s.roundsMu.RUnlock()

	status, ok := s.rounds[id]
	if !ok {
		return RoundStatus{}, fmt.Errorf("round %q: %w", id, ErrNotFound)
	}
	return status.clone(), nil
}

// Completed stores a finished round match, applies it to the ladder and
// records its injuries. It implements worker.Reporter.
func (s *Service) Completed(ctx context.Context, j queue.Job, res model.MatchResult) error { //nolint:gocritic // hugeParam
	if err := s.results.Save(ctx, res); err != nil {
		s.finish(ctx, j, err)
		return fmt.Errorf("save result: %w", err)
	}

	if _, err := s.ladder.Record(ctx, res); err != nil {
		s.logger.Warn(ctx, "failed to update ladder",
			logger.String("match_id", res.MatchID),
			logger.Error(err),
		)
	}
	s.recordInjuries(ctx, res)
	s.finish(ctx, j, nil)
	return nil
}

// Failed records a round match that could not be simulated. It implements
// worker.Reporter.
func (s *Service) Failed(ctx context.Context, j queue.Job, err error) { //nolint:gocritic // hugeParam
	s.logger.Warn(ctx, "round match failed",
		logger.String("round_id", j.RoundID),
		logger.String("match_id", j.Request.MatchID),
		logger.Error(err),
	)
	s.finish(ctx, j, err)
}

// finish tallies one job against its round.
func (s *Service) finish(ctx context.Context, j queue.Job, err error) { //nolint:gocritic // hugeParam
	metrics.UpdateMatchesPending(int(s.pending.Add(-1)))

	s.roundsMu.Lock()
	defer s.roundsMu.Unlock()

	status, ok := s.rounds[j.RoundID]
	if !ok {
		return
	}
	if err != nil {
		status.Failed++
		if status.Errors == nil {
			status.Errors = make(map[string]string)
		}
		status.Errors[j.Request.MatchID] = err.Error()
	} else {
		status.Completed++
	}

	if status.Completed+status.Failed < status.Total {
		return
	}
	done := s.clock().UTC()
	status.CompletedAt = &done
	status.Status = RoundCompleted
	if status.Failed > 0 {
		status.Status = RoundCompletedWithErrors
	}
	s.logger.Info(ctx, "round completed",
		logger.String("round_id", status.ID),
		logger.Int("round", status.Round),
		logger.Int("completed", status.Completed),
		logger.Int("failed", status.Failed),
	)
}

// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
//
// It owns the match engine, the simulation queue and worker pool, and the
// result, injury history and ladder stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/matchsim/internal/adapters/mq/queue"
	"github.com/okian/matchsim/internal/adapters/mq/worker"
	"github.com/okian/matchsim/internal/adapters/replay"
	"github.com/okian/matchsim/internal/adapters/repository"
	"github.com/okian/matchsim/internal/adapters/stream"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
)

const (
	tracerName = "github.com/okian/matchsim/internal/app"

	defaultQueueSize     = 1024
	defaultQuarterLength = 1200
)

// simulatorAdapter exposes the service's traced simulation to the worker pool.
type simulatorAdapter struct {
	s *Service
}

func (a *simulatorAdapter) Simulate(ctx context.Context, req match.Request) (model.MatchResult, error) { //nolint:gocritic // hugeParam
	return a.s.simulate(ctx, req)
}

// Service implements the API dependencies for match simulation.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine   *match.Engine
	queue    queue.Queue
	pool     *worker.Pool
	results  repository.ResultStore
	injuries repository.InjuryHistoryStore
	ladder   repository.Ladder
	hub      *stream.Hub

	// Configuration
	workerCount   int
	queueSize     int
	quarterLength int
	tuning        model.Tuning
	replayDir     string
	clock         func() time.Time
	tracer        trace.Tracer

	// Rounds
	roundsMu sync.RWMutex
	rounds   map[string]*RoundStatus
	pending  atomic.Int64

	// State
	started bool
	cancel  context.CancelFunc

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of simulation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued matches.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithQuarterLength sets the quarter length used when a fixture gives none.
func WithQuarterLength(seconds int) Option {
	return func(s *Service) {
		if seconds > 0 {
			s.quarterLength = seconds
		}
	}
}

// WithTuning sets the engine tuning for every match.
func WithTuning(t model.Tuning) Option { //nolint:gocritic // hugeParam
	return func(s *Service) {
		s.tuning = t
	}
}

// WithResultStore sets the result store.
func WithResultStore(store repository.ResultStore) Option {
	return func(s *Service) {
		if store != nil {
			s.results = store
		}
	}
}

// WithInjuryStore sets the injury history store.
func WithInjuryStore(store repository.InjuryHistoryStore) Option {
	return func(s *Service) {
		if store != nil {
			s.injuries = store
		}
	}
}

// WithLadder sets the premiership ladder.
func WithLadder(l repository.Ladder) Option {
	return func(s *Service) {
		if l != nil {
			s.ladder = l
		}
	}
}

// WithStreamHub publishes every match's snapshots to hub.
func WithStreamHub(hub *stream.Hub) Option {
	return func(s *Service) {
		s.hub = hub
	}
}

// WithReplayDir writes a replay bundle per match under dir.
func WithReplayDir(dir string) Option {
	return func(s *Service) {
		s.replayDir = dir
	}
}

// WithClock sets the wall clock used for round and replay timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithTracer sets the tracer. The global provider's tracer is used otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		quarterLength: defaultQuarterLength,
		tuning:        model.DefaultTuning(),
		results:       repository.NewMemoryResultStore(),
		injuries:      repository.NewMemoryInjuryStore(),
		ladder:        repository.NewTreapLadder(),
		clock:         time.Now,
		tracer:        otel.Tracer(tracerName),
		rounds:        make(map[string]*RoundStatus),
		logger:        logger.GetOrNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.engine = match.NewEngine(match.WithLogger(s.logger.Named("engine")))
	return s
}

// Start initializes the queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.tuning.Validate(); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	s.logger.Info(ctx, "starting match simulation service...")

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)

	// Workers outlive the request that started the service; Stop ends them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, &simulatorAdapter{s: s}, s,
		worker.WithLogger(s.logger.Named("worker")),
	)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "match simulation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Bool("replays", s.replayDir != ""),
	)
	return nil
}

// Stop closes the queue and waits for queued matches to finish.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping match simulation service...")

	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false

	if err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "match simulation service stopped")
	return nil
}

func (s *Service) activeQueue() (queue.Queue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.queue, nil
}

// Result returns the stored result of a match.
func (s *Service) Result(ctx context.Context, matchID string) (model.MatchResult, error) {
	return s.results.Get(ctx, matchID)
}

// Ladder returns the first n ladder positions.
func (s *Service) Ladder(ctx context.Context, n int) ([]repository.Standing, error) {
	standings, err := s.ladder.Top(ctx, n)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return standings, err
}

// Standing returns a team's ladder position.
func (s *Service) Standing(ctx context.Context, team model.TeamID) (repository.Standing, error) {
	return s.ladder.Standing(ctx, team)
}

// Replay loads the replay bundle of a match.
func (s *Service) Replay(_ context.Context, matchID string, withFrames bool) (replay.Bundle, error) {
	if s.replayDir == "" {
		return replay.Bundle{}, ErrReplayDisabled
	}
	b, err := replay.Load(replay.Dir(s.replayDir, matchID), withFrames)
	if errors.Is(err, os.ErrNotExist) {
		return replay.Bundle{}, fmt.Errorf("replay %q: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return replay.Bundle{}, err
	}
	if b.Manifest.MatchID != matchID {
		return replay.Bundle{}, fmt.Errorf("replay %q holds match %q: %w", matchID, b.Manifest.MatchID, ErrNotFound)
	}
	return b, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"replays":       s.replayDir != "",
		"resultsStored": s.results.Count(ctx),
		"ladderTeams":   s.ladder.Count(ctx),
	}

	s.roundsMu.RLock()
	stats["rounds"] = len(s.rounds)
	s.roundsMu.RUnlock()

	if s.hub != nil {
		stats["streamSubscribers"] = s.hub.Subscribers()
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		pending := int(s.pending.Load())

		stats["queueLength"] = queueLen
		stats["matchesPending"] = pending
		stats["matchesProcessed"] = s.pool.Processed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateMatchesPending(pending)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

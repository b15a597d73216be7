// Package worker runs queued simulation jobs on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/matchsim/internal/adapters/mq/queue"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
)

// Default worker configuration constants.
const (
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Simulator plays a match to completion.
type Simulator interface {
	Simulate(ctx context.Context, req match.Request) (model.MatchResult, error)
}

// Reporter receives the outcome of every job.
type Reporter interface {
	// Completed stores a finished match.
	Completed(ctx context.Context, j queue.Job, res model.MatchResult) error
	// Failed records a job that could not be simulated.
	Failed(ctx context.Context, j queue.Job, err error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after the job in progress.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for simulation jobs.
type InMemoryWorker struct {
	queue     Queue
	simulator Simulator
	reporter  Reporter
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sim Simulator, rep Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		simulator: sim,
		reporter:  rep,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.GetOrNop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop. It returns when ctx is canceled, Shutdown is
// called or the queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, j); err != nil {
				w.logger.Error(ctx, "error processing job",
					logger.String("job_id", j.ID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown signals the worker to stop and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// processJob simulates one match and hands the outcome to the reporter.
func (w *InMemoryWorker) processJob(ctx context.Context, j queue.Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	metrics.UpdateWorkerActiveCount(1)
	defer func() {
		metrics.UpdateWorkerActiveCount(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSimulationPanic, r)
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "panic")
			w.reporter.Failed(ctx, j, err)
		}
	}()

	res, err := w.simulator.Simulate(ctx, j.Request)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "simulation_error")
		metrics.RecordErrorByType("simulation_error", "high")
		w.reporter.Failed(ctx, j, err)
		return fmt.Errorf("simulate match %s: %w", j.Request.MatchID, err)
	}

	if err := w.reporter.Completed(ctx, j, res); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "report_error")
		metrics.RecordErrorByType("report_error", "high")
		return fmt.Errorf("report match %s: %w", j.Request.MatchID, err)
	}

	w.logger.Debug(ctx, "job completed",
		logger.String("job_id", j.ID),
		logger.String("round_id", j.RoundID),
		logger.Int64("queue_wait_ms", start.Sub(j.Enqueued).Milliseconds()),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	processed atomic.Int64

	logger logger.Logger
}

// NewPool creates a new worker pool. A count below one uses one worker per CPU.
func NewPool(workerCount int, q Queue, sim Simulator, rep Reporter, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.GetOrNop().Named("worker-pool"),
	}

	counted := &countingReporter{Reporter: rep, n: &pool.processed}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, sim, counted, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of jobs that reached the reporter.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals every worker to stop after its current job and waits for them.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.stop()
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
			p.logger.Warn(context.Background(), "worker stop timed out", logger.Int("worker_id", i))
		}
	}
}

// Shutdown closes the queue and lets the workers drain it. Workers still busy
// when ctx expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.stop()
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}

type countingReporter struct {
	Reporter
	n *atomic.Int64
}

func (c *countingReporter) Completed(ctx context.Context, j queue.Job, res model.MatchResult) error { //nolint:gocritic // hugeParam
	c.n.Add(1)
	return c.Reporter.Completed(ctx, j, res)
}

func (c *countingReporter) Failed(ctx context.Context, j queue.Job, err error) { //nolint:gocritic // hugeParam
	c.n.Add(1)
	c.Reporter.Failed(ctx, j, err)
}

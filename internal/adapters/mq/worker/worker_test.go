package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/matchsim/internal/adapters/mq/queue"
	"github.com/okian/matchsim/internal/adapters/mq/worker"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

func (mq *mockQueue) add(id string) {
	mq.jobs <- queue.Job{ID: id, RoundID: "r1", Request: match.Request{MatchID: id}, Enqueued: time.Now()}
}

type mockSimulator struct {
	mu     sync.Mutex
	errs   map[string]error
	panics map[string]bool
}

func newMockSimulator() *mockSimulator {
	return &mockSimulator{errs: map[string]error{}, panics: map[string]bool{}}
}

func (m *mockSimulator) Simulate(_ context.Context, req match.Request) (model.MatchResult, error) {
	m.mu.Lock()
	err, shouldPanic := m.errs[req.MatchID], m.panics[req.MatchID]
	m.mu.Unlock()
	if shouldPanic {
		panic("boom")
	}
	if err != nil {
		return model.MatchResult{}, err
	}
	return model.MatchResult{MatchID: req.MatchID, Home: model.Score{Goals: 10, Behinds: 8}}, nil
}

type mockReporter struct {
	mu        sync.Mutex
	completed map[string]model.MatchResult
	failed    map[string]error
	reportErr error
}

func newMockReporter() *mockReporter {
	return &mockReporter{completed: map[string]model.MatchResult{}, failed: map[string]error{}}
}

func (r *mockReporter) Completed(_ context.Context, j queue.Job, res model.MatchResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reportErr != nil {
		return r.reportErr
	}
	r.completed[j.ID] = res
	return nil
}

func (r *mockReporter) Failed(_ context.Context, j queue.Job, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed[j.ID] = err
}

func (r *mockReporter) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.failed)
}

func (r *mockReporter) waitFor(n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, f := r.counts()
		if c+f >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		sim := newMockSimulator()
		rep := newMockReporter()
		w := worker.NewInMemoryWorker(q, sim, rep, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job simulates cleanly", func() {
			q.add("m1")
			convey.So(rep.waitFor(1), convey.ShouldBeTrue)

			convey.Convey("Then the result is reported as completed", func() {
				rep.mu.Lock()
				defer rep.mu.Unlock()
				convey.So(rep.completed["m1"].MatchID, convey.ShouldEqual, "m1")
				convey.So(rep.completed["m1"].Home.Points(), convey.ShouldEqual, 68)
				convey.So(rep.failed, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the simulator fails", func() {
			boom := errors.New("insufficient roster")
			sim.errs["m2"] = boom
			q.add("m2")
			convey.So(rep.waitFor(1), convey.ShouldBeTrue)

			convey.Convey("Then the failure is reported with the cause", func() {
				rep.mu.Lock()
				defer rep.mu.Unlock()
				convey.So(errors.Is(rep.failed["m2"], boom), convey.ShouldBeTrue)
				convey.So(rep.completed, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the simulator panics", func() {
			sim.panics["m3"] = true
			q.add("m3")
			convey.So(rep.waitFor(1), convey.ShouldBeTrue)

			convey.Convey("Then the worker survives and keeps processing", func() {
				rep.mu.Lock()
				convey.So(errors.Is(rep.failed["m3"], worker.ErrSimulationPanic), convey.ShouldBeTrue)
				rep.mu.Unlock()

				q.add("m4")
				convey.So(rep.waitFor(2), convey.ShouldBeTrue)
				rep.mu.Lock()
				defer rep.mu.Unlock()
				convey.So(rep.completed, convey.ShouldContainKey, "m4")
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.Convey("Then it stops gracefully and a second call is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerStopsWhenQueueCloses(t *testing.T) {
	convey.Convey("Given a worker whose queue is closed", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, newMockSimulator(), newMockReporter())
		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()
		_ = q.Close()

		convey.Convey("Then Run returns", func() {
			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker still running", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		q := newMockQueue()
		sim := newMockSimulator()
		rep := newMockReporter()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, sim, rep)

			convey.Convey("Then it still has workers", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When started with several jobs queued", func() {
			pool := worker.NewPool(3, q, sim, rep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sim.errs["bad"] = errors.New("bad fixture")
			for _, id := range []string{"a", "b", "c", "bad"} {
				q.add(id)
			}
			pool.Start(ctx)

			convey.Convey("Then every job is reported exactly once", func() {
				convey.So(rep.waitFor(4), convey.ShouldBeTrue)
				completed, failed := rep.counts()
				convey.So(completed, convey.ShouldEqual, 3)
				convey.So(failed, convey.ShouldEqual, 1)
				convey.So(pool.Processed(), convey.ShouldEqual, 4)
			})

			convey.Convey("Then Shutdown drains and closes the queue", func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
				defer shutdownCancel()
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldBeNil)
				completed, failed := rep.counts()
				convey.So(completed+failed, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When stopped while idle", func() {
			pool := worker.NewPool(2, q, sim, rep)
			pool.Start(context.Background())
			done := make(chan struct{})
			go func() {
				pool.Stop()
				close(done)
			}()

			convey.Convey("Then Stop returns promptly", func() {
				select {
				case <-done:
					convey.So(true, convey.ShouldBeTrue)
				case <-time.After(2 * time.Second):
					convey.So("pool still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerReportError(t *testing.T) {
	convey.Convey("Given a reporter that rejects results", t, func() {
		q := newMockQueue()
		rep := newMockReporter()
		rep.reportErr = errors.New("store down")
		pool := worker.NewPool(1, q, newMockSimulator(), rep)
		pool.Start(context.Background())
		q.add("m1")

		convey.Convey("Then the job is still counted and the worker keeps going", func() {
			deadline := time.Now().Add(2 * time.Second)
			for pool.Processed() < 1 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			convey.So(pool.Processed(), convey.ShouldEqual, 1)
			_ = pool.Shutdown(context.Background())
		})
	})
}

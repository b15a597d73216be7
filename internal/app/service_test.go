package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	service "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/adapters/stream"
	"github.com/okian/matchsim/internal/domain/fixture"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
	"github.com/okian/matchsim/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

const shortQuarter = 120

func league(seed int64, n int) []service.TeamEntry {
	teams, rosters := fixture.League(seed, n, fixture.DefaultRosterSize)
	out := make([]service.TeamEntry, n)
	for i := range teams {
		out[i] = service.TeamEntry{Team: teams[i], Roster: rosters[i]}
	}
	return out
}

func seed(v int64) *int64 { return &v }

func matchRequest(matchID string, s int64) service.MatchRequest {
	return service.MatchRequest{
		Round: 1,
		Teams: league(11, 2),
		Fixture: service.Fixture{
			MatchID:    matchID,
			HomeTeamID: 1,
			AwayTeamID: 2,
			Seed:       seed(s),
		},
	}
}

func started(opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithWorkerCount(2), service.WithQuarterLength(shortQuarter)}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	Reset(func() { _ = svc.Stop(context.Background()) })
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(3), service.WithQueueSize(64))

		Convey("Then it is not started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["workerCount"], ShouldEqual, 3)
			So(stats["queueSize"], ShouldEqual, 64)
		})

		Convey("Then simulation is refused until started", func() {
			_, err := svc.SimulateMatch(ctx, matchRequest("m1", 1))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)

			_, err = svc.SubmitRound(ctx, service.RoundRequest{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)

			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given an invalid tuning", t, func() {
		tuning := model.DefaultTuning()
		tuning.TickSeconds = 0
		svc := service.New(service.WithTuning(tuning))

		Convey("Then start fails", func() {
			So(errors.Is(svc.Start(ctx), model.ErrInvalidTuning), ShouldBeTrue)
		})
	})
}

func TestService_SimulateMatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := started()

		Convey("When simulating a match", func() {
			rec := &match.Recorder{}
			res, err := svc.SimulateMatch(ctx, matchRequest("m1", 42), rec)
			So(err, ShouldBeNil)

			Convey("Then the result is stored", func() {
				stored, err := svc.Result(ctx, "m1")
				So(err, ShouldBeNil)
				So(stored, ShouldResemble, res)
			})

			Convey("Then extra sinks see the match through to the final siren", func() {
				So(rec.Snapshots, ShouldNotBeEmpty)
				last := rec.Snapshots[len(rec.Snapshots)-1]
				So(last.Final, ShouldBeTrue)
				So(last.HomeScore, ShouldResemble, res.Home)
			})

			Convey("Then the same seed replays the same match", func() {
				again, err := svc.SimulateMatch(ctx, matchRequest("m2", 42))
				So(err, ShouldBeNil)
				So(again.Home, ShouldResemble, res.Home)
				So(again.Away, ShouldResemble, res.Away)
				So(again.Players, ShouldResemble, res.Players)
			})
		})

		Convey("When no match id or seed is given", func() {
			req := matchRequest("", 0)
			req.Seed = nil
			res, err := svc.SimulateMatch(ctx, req)

			Convey("Then both are generated", func() {
				So(err, ShouldBeNil)
				So(res.MatchID, ShouldNotBeEmpty)
				So(res.Seed, ShouldNotEqual, 0)
			})
		})

		Convey("When the request is invalid", func() {
			selfPlay := matchRequest("bad", 1)
			selfPlay.AwayTeamID = 1
			_, err := svc.SimulateMatch(ctx, selfPlay)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, match.ErrSelfPlay), ShouldBeTrue)

			unknown := matchRequest("bad", 1)
			unknown.AwayTeamID = 7
			_, err = svc.SimulateMatch(ctx, unknown)
			So(errors.Is(err, service.ErrUnknownTeam), ShouldBeTrue)

			dup := matchRequest("bad", 1)
			dup.Teams = append(dup.Teams, dup.Teams[0])
			_, err = svc.SimulateMatch(ctx, dup)
			So(errors.Is(err, service.ErrDuplicateTeam), ShouldBeTrue)

			short := matchRequest("bad", 1)
			short.Teams[1].Roster = short.Teams[1].Roster[:10]
			_, err = svc.SimulateMatch(ctx, short)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
			So(errors.Is(err, match.ErrInsufficientRoster), ShouldBeTrue)

			lonely := matchRequest("bad", 1)
			lonely.Teams = lonely.Teams[:1]
			_, err = svc.SimulateMatch(ctx, lonely)
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)

			Convey("Then nothing is stored", func() {
				_, err := svc.Result(ctx, "bad")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Tracing(t *testing.T) {
	Convey("Given a service with a recording tracer", t, func() {
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		svc := started(service.WithTracer(provider.Tracer("test")))

		Convey("When a match is simulated", func() {
			_, err := svc.SimulateMatch(context.Background(), matchRequest("traced", 3))
			So(err, ShouldBeNil)

			Convey("Then a span covers the simulation", func() {
				var names []string
				for _, span := range recorder.Ended() {
					names = append(names, span.Name())
				}
				So(names, ShouldContain, "match.simulate")
			})
		})
	})
}

func TestService_Stream(t *testing.T) {
	Convey("Given a service publishing to a stream hub", t, func() {
		hub := stream.NewHub(stream.WithBufferSize(10_000))
		Reset(hub.Close)
		svc := started(service.WithStreamHub(hub))

		sub, err := hub.Subscribe("live")
		So(err, ShouldBeNil)

		Convey("When the match is simulated", func() {
			_, err := svc.SimulateMatch(context.Background(), matchRequest("live", 5))
			So(err, ShouldBeNil)

			Convey("Then subscribers receive the final snapshot", func() {
				var last model.Snapshot
				deadline := time.After(5 * time.Second)
			drain:
				for {
					select {
					case s := <-sub.C:
						last = s
						if s.Final {
							break drain
						}
					case <-deadline:
						break drain
					}
				}
				So(last.Final, ShouldBeTrue)
				So(last.MatchID, ShouldEqual, "live")
			})
		})
	})
}

func TestService_Replay(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service writing replays", t, func() {
		svc := started(service.WithReplayDir(t.TempDir()))

		Convey("When a match is simulated", func() {
			rec := &match.Recorder{}
			res, err := svc.SimulateMatch(ctx, matchRequest("replayed", 8), rec)
			So(err, ShouldBeNil)

			Convey("Then its replay holds every snapshot", func() {
				bundle, err := svc.Replay(ctx, res.MatchID, true)
				So(err, ShouldBeNil)
				So(bundle.Manifest.Complete, ShouldBeTrue)
				So(bundle.Frames, ShouldResemble, rec.Snapshots)
			})

			Convey("Then unknown matches are not found", func() {
				_, err := svc.Replay(ctx, "missing", false)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then ids that differ only in punctuation stay apart", func() {
				_, err := svc.SimulateMatch(ctx, matchRequest("re.played", 9))
				So(err, ShouldBeNil)

				dotted, err := svc.Replay(ctx, "re.played", false)
				So(err, ShouldBeNil)
				So(dotted.Manifest.MatchID, ShouldEqual, "re.played")

				plain, err := svc.Replay(ctx, "replayed", false)
				So(err, ShouldBeNil)
				So(plain.Manifest.MatchID, ShouldEqual, "replayed")
			})
		})
	})

	Convey("Given a service without replays", t, func() {
		svc := started()

		Convey("Then replay requests are refused", func() {
			_, err := svc.Replay(ctx, "any", false)
			So(errors.Is(err, service.ErrReplayDisabled), ShouldBeTrue)
		})
	})
}

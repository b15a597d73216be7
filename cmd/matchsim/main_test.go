package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	app "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/config"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestBuild(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2

		convey.Convey("When the application is built", func() {
			a, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer a.close(ctx)

			convey.Convey("Then the service is started", func() {
				convey.So(a.svc.GetStats()["started"], convey.ShouldEqual, true)
				convey.So(a.injuries, convey.ShouldBeNil)
			})

			convey.Convey("Then the API and docs are routed", func() {
				for _, path := range []string{"/healthz", "/stats", "/api/v1/ladder", "/openapi.yaml", "/docs"} {
					req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
					w := httptest.NewRecorder()
					a.handler.ServeHTTP(w, req)
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})

			convey.Convey("Then unknown rounds are not found", func() {
				req := httptest.NewRequest(http.MethodGet, "/api/v1/rounds/nope", http.NoBody)
				w := httptest.NewRecorder()
				a.handler.ServeHTTP(w, req)
				convey.So(w.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})

		convey.Convey("When an injury database is configured", func() {
			cfg.InjuryDBPath = filepath.Join(t.TempDir(), "injuries.db")
			a, err := build(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer a.close(ctx)

			convey.Convey("Then the SQLite store is used", func() {
				convey.So(a.injuries, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the tuning is invalid", func() {
			cfg.TickSeconds = 0
			a, err := build(ctx, cfg)

			convey.Convey("Then build fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(a, convey.ShouldBeNil)
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration on a free port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 1

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				convey.So(run(ctx, cfg), convey.ShouldBeNil)
			})
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		svc := app.New()

		convey.Convey("Then they stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

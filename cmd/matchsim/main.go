package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/matchsim/internal/adapters/http/api"
	"github.com/okian/matchsim/internal/adapters/http/swagger"
	"github.com/okian/matchsim/internal/adapters/repository"
	"github.com/okian/matchsim/internal/adapters/repository/sqlite"
	"github.com/okian/matchsim/internal/adapters/stream"
	app "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/config"
	"github.com/okian/matchsim/pkg/logger"
	"github.com/okian/matchsim/pkg/metrics"
	"github.com/okian/matchsim/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second

	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6

	serviceName = "matchsim"
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "matchsim exited", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn(ctx, "trace exporter shutdown failed", logger.Error(err))
		}
	}()

	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, a.svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// application bundles the started service and its HTTP surface.
type application struct {
	svc      *app.Service
	hub      *stream.Hub
	injuries *sqlite.Store
	handler  http.Handler
}

// build wires storage, the stream hub and the service behind the router.
// The service is started.
func build(ctx context.Context, cfg *config.Config) (*application, error) {
	log := logger.Get()
	a := &application{hub: stream.NewHub(stream.WithLogger(log.Named("stream")))}

	var injuries repository.InjuryHistoryStore = repository.NewMemoryInjuryStore()
	if cfg.InjuryDBPath != "" {
		store, err := sqlite.Open(cfg.InjuryDBPath)
		if err != nil {
			a.hub.Close()
			return nil, err
		}
		a.injuries = store
		injuries = store
	}

	a.svc = app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithQuarterLength(cfg.QuarterLengthSeconds),
		app.WithTuning(cfg.Tuning()),
		app.WithInjuryStore(injuries),
		app.WithStreamHub(a.hub),
		app.WithReplayDir(cfg.ReplayDir),
	)
	if err := a.svc.Start(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}

	router := mux.NewRouter()
	swagger.Register(ctx, router)
	api.NewServer(a.svc, a.svc,
		api.WithStream(a.hub),
		api.WithStreamOrigins(cfg.Origins()),
		api.WithLogger(log.Named("api")),
	).Register(ctx, router)
	a.handler = api.CORS(cfg.Origins(), router)
	return a, nil
}

// close stops the service and releases what build opened.
func (a *application) close(ctx context.Context) {
	log := logger.Get()
	if a.svc != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := a.svc.Stop(stopCtx); err != nil {
			log.Warn(ctx, "service stop failed", logger.Error(err))
		}
	}
	a.hub.Close()
	if a.injuries != nil {
		if err := a.injuries.Close(); err != nil {
			log.Warn(ctx, "injury store close failed", logger.Error(err))
		}
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges derived from service stats.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if stored, ok := stats["resultsStored"].(int); ok {
		metrics.UpdateResultsStored(stored)
	}
	if teams, ok := stats["ladderTeams"].(int); ok {
		metrics.UpdateLadderTeams(teams)
	}
}

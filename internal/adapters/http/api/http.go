// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/matchsim/internal/adapters/stream"
	service "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/pkg/logger"
)

// Default request limits.
const (
	defaultMaxBodyBytes = 4 << 20
	defaultLadderLimit  = 18
	defaultMaxLimit     = 1000
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	MatchDependencies
	RoundDependencies
	LadderDependencies
}

// StreamSource hands out live snapshot subscriptions.
type StreamSource interface {
	Subscribe(matchID string) (*stream.Subscription, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	matchesHandler *MatchesHandler
	roundsHandler  *RoundsHandler
	ladderHandler  *LadderHandler
	streamHandler  *StreamHandler

	maxBodyBytes int64
	maxLimit     int
	source       StreamSource
	origins      []string
	logger       logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithStream enables GET /api/v1/stream backed by source.
func WithStream(source StreamSource) Option {
	return func(s *Server) {
		s.source = source
	}
}

// WithStreamOrigins restricts websocket upgrades to origins. Without it, or
// with "*" among origins, any origin may subscribe.
func WithStreamOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMaxLimit bounds the ladder limit parameter.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
		maxLimit:     defaultMaxLimit,
		logger:       logger.GetOrNop().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.matchesHandler = NewMatchesHandler(deps, s.maxBodyBytes)
	s.roundsHandler = NewRoundsHandler(deps, s.maxBodyBytes)
	s.ladderHandler = NewLadderHandler(deps, s.maxLimit)
	if s.source != nil {
		s.streamHandler = NewStreamHandler(s.source, s.origins, s.logger)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.Handle("/metrics", s.healthHandler.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/matches", MetricsMiddleware(s.matchesHandler.HandleSimulate, "matches")).Methods(http.MethodPost)
	v1.HandleFunc("/matches/{id}", MetricsMiddleware(s.matchesHandler.HandleGet, "match")).Methods(http.MethodGet)
	v1.HandleFunc("/matches/{id}/replay", MetricsMiddleware(s.matchesHandler.HandleReplay, "replay")).Methods(http.MethodGet)
	v1.HandleFunc("/rounds", MetricsMiddleware(s.roundsHandler.HandleSubmit, "rounds")).Methods(http.MethodPost)
	v1.HandleFunc("/rounds/{id}", MetricsMiddleware(s.roundsHandler.HandleGet, "round")).Methods(http.MethodGet)
	v1.HandleFunc("/ladder", MetricsMiddleware(s.ladderHandler.HandleTop, "ladder")).Methods(http.MethodGet)
	v1.HandleFunc("/ladder/{team:[0-9]+}", MetricsMiddleware(s.ladderHandler.HandleStanding, "standing")).Methods(http.MethodGet)
	if s.streamHandler != nil {
		v1.HandleFunc("/stream", MetricsMiddleware(s.streamHandler.HandleStream, "stream")).Methods(http.MethodGet)
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service error kinds to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrReplayDisabled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// decode reads a JSON body of at most limit bytes into v.
func decode(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind("decode", ErrBadRequest, err)
	}
	return nil
}

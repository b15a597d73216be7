package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/matchsim/internal/adapters/replay"
	service "github.com/okian/matchsim/internal/app"
	"github.com/okian/matchsim/internal/domain/match"
	"github.com/okian/matchsim/internal/domain/model"
)

// MatchDependencies defines the interface for match operations.
type MatchDependencies interface {
	SimulateMatch(ctx context.Context, req service.MatchRequest, sinks ...match.Sink) (model.MatchResult, error)
	Result(ctx context.Context, matchID string) (model.MatchResult, error)
	Replay(ctx context.Context, matchID string, withFrames bool) (replay.Bundle, error)
}

// MatchesHandler handles match requests.
type MatchesHandler struct {
	deps         MatchDependencies
	maxBodyBytes int64
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps MatchDependencies, maxBodyBytes int64) *MatchesHandler {
	return &MatchesHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type matchResponse struct {
	Result    model.MatchResult `json:"result"`
	Snapshots []model.Snapshot  `json:"snapshots,omitempty"`
}

// HandleSimulate handles POST /api/v1/matches[?snapshots=true] requests.
func (h *MatchesHandler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "api.simulate_match"

	withSnapshots, err := boolParam(r, "snapshots")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var req service.MatchRequest
	if err := decode(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	var sinks []match.Sink
	rec := &match.Recorder{}
	if withSnapshots {
		sinks = append(sinks, rec)
	}

	res, err := h.deps.SimulateMatch(r.Context(), req, sinks...)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, matchResponse{Result: res, Snapshots: rec.Snapshots})
}

// HandleGet handles GET /api/v1/matches/{id} requests.
func (h *MatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_match"

	res, err := h.deps.Result(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReplay handles GET /api/v1/matches/{id}/replay[?frames=true] requests.
func (h *MatchesHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_replay"

	withFrames, err := boolParam(r, "frames")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	bundle, err := h.deps.Replay(r.Context(), mux.Vars(r)["id"], withFrames)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

// boolParam parses an optional boolean query parameter.
func boolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	service "github.com/okian/matchsim/internal/app"
)

// RoundDependencies defines the interface for round operations.
type RoundDependencies interface {
	SubmitRound(ctx context.Context, req service.RoundRequest) (service.RoundStatus, error)
	Round(ctx context.Context, id string) (service.RoundStatus, error)
}

// RoundsHandler handles round requests.
type RoundsHandler struct {
	deps         RoundDependencies
	maxBodyBytes int64
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps RoundDependencies, maxBodyBytes int64) *RoundsHandler {
	return &RoundsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandleSubmit handles POST /api/v1/rounds requests. The round is played in
// the background; poll its Location for progress.
func (h *RoundsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_round"

	var req service.RoundRequest
	if err := decode(w, r, h.maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		return
	}

	status, err := h.deps.SubmitRound(r.Context(), req)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Location", "/api/v1/rounds/"+status.ID)
	writeJSON(w, http.StatusAccepted, status)
}

// HandleGet handles GET /api/v1/rounds/{id} requests.
func (h *RoundsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_round"

	status, err := h.deps.Round(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/okian/matchsim/internal/adapters/repository"
	"github.com/okian/matchsim/internal/domain/model"
)

// LadderDependencies defines the interface for ladder operations.
type LadderDependencies interface {
	Ladder(ctx context.Context, n int) ([]repository.Standing, error)
	Standing(ctx context.Context, team model.TeamID) (repository.Standing, error)
}

// LadderHandler handles ladder requests.
type LadderHandler struct {
	deps     LadderDependencies
	maxLimit int
}

// NewLadderHandler creates a new ladder handler.
func NewLadderHandler(deps LadderDependencies, maxLimit int) *LadderHandler {
	return &LadderHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleTop handles GET /api/v1/ladder[?limit=N] requests.
func (h *LadderHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ladder"

	n := defaultLadderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		n, err = strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	standings, err := h.deps.Ladder(r.Context(), n)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

// HandleStanding handles GET /api/v1/ladder/{team} requests.
func (h *LadderHandler) HandleStanding(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_standing"

	team, err := strconv.Atoi(mux.Vars(r)["team"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	standing, err := h.deps.Standing(r.Context(), model.TeamID(team))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

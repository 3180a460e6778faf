package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/matchwinner/internal/app"
	"github.com/okian/matchwinner/internal/domain/model"
)

const defaultHistoryLimit = 10

// HistoryDependencies defines the interface for history reads.
type HistoryDependencies interface {
	History(ctx context.Context, n int) ([]model.HistoryEntry, error)
}

// HistoryHandler handles history requests.
type HistoryHandler struct {
	deps     HistoryDependencies
	maxLimit int
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies, maxLimit int) *HistoryHandler {
	return &HistoryHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type historyResponse struct {
	Entries []model.HistoryEntry `json:"entries"`
}

// HandleGetHistory handles GET /api/history?limit=N requests. The limit
// defaults to 10 (capped at the maximum) when omitted.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	n := min(defaultHistoryLimit, h.maxLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > h.maxLimit {
			writeError(w, http.StatusBadRequest, "invalid_limit",
				wrapKind(op, ErrInvalidLimit, fmt.Errorf("limit must be between 1 and %d", h.maxLimit)))
			return
		}
		n = parsed
	}

	entries, err := h.deps.History(r.Context(), n)
	switch {
	case errors.Is(err, service.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "invalid_limit", wrapKind(op, ErrInvalidLimit, err))
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", wrapKind(op, ErrUnavailable, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", wrapKind(op, ErrInternal, err))
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

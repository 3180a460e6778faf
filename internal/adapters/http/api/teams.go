package api

import (
	"net/http"

	"github.com/okian/matchwinner/internal/domain/roster"
)

// TeamsDependencies defines the interface for roster reads.
type TeamsDependencies interface {
	Roster() *roster.Roster
}

// TeamsHandler handles roster requests.
type TeamsHandler struct {
	deps TeamsDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamsDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

type teamsResponse struct {
	Teams []string `json:"teams"`
}

// HandleGetTeams handles GET /api/teams requests.
func (h *TeamsHandler) HandleGetTeams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, teamsResponse{Teams: h.deps.Roster().Teams()})
}

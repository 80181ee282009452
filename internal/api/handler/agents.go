package handler

import (
	"net/http"
	"time"

	"github.com/agentpulse/agentpulse/internal/aggregate"
	"github.com/agentpulse/agentpulse/internal/api/response"
)

type agentsResponse struct {
	Agents []aggregate.AgentGroup `json:"agents"`
}

// NewAgentsHandler returns the handler for GET /v1/agents: the trailing-24h
// readings grouped by reported hostname.
func NewAgentsHandler(src ReadingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, ok := workspaceIDParam(w, r)
		if !ok {
			return
		}

		since := time.Now().Add(-24 * time.Hour)
		readings, err := src.ListReadingsSince(r.Context(), workspaceID, since, aggregate.MaxHistoryRows)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to load agents")
			return
		}

		response.JSON(w, agentsResponse{Agents: aggregate.GroupByHostname(readings)})
	}
}

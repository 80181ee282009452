package handler

import (
	"net/http"
	"strconv"

	"github.com/agentpulse/agentpulse/internal/aggregate"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/pkg/models"
)

const defaultHistoryHours = 24

type historyResponse struct {
	History []*models.Reading `json:"history"`
}

// NewHistoryHandler returns the handler for GET /v1/history. Rows come back
// newest first, capped at min(hours*12, 1000) regardless of range.
func NewHistoryHandler(src ReadingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, ok := workspaceIDParam(w, r)
		if !ok {
			return
		}

		hours := defaultHistoryHours
		if raw := r.URL.Query().Get("hours"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				response.Error(w, http.StatusBadRequest, "hours must be a positive integer")
				return
			}
			hours = parsed
		}

		readings, err := src.ListReadings(r.Context(), workspaceID, aggregate.HistoryLimit(hours))
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to load history")
			return
		}
		if readings == nil {
			readings = []*models.Reading{}
		}

		response.JSON(w, historyResponse{History: readings})
	}
}

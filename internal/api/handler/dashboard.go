package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/agentpulse/agentpulse/internal/aggregate"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

// ReadingSource is the read-side store surface the query handlers use.
type ReadingSource interface {
	LatestReading(ctx context.Context, workspaceID uuid.UUID) (*models.Reading, error)
	ListReadings(ctx context.Context, workspaceID uuid.UUID, limit int) ([]*models.Reading, error)
	ListReadingsSince(ctx context.Context, workspaceID uuid.UUID, since time.Time, limit int) ([]*models.Reading, error)
}

type dashboardResponse struct {
	LatestReport  *models.Reading `json:"latestReport"`
	ReportedAt    *string         `json:"reportedAt"`
	GatewayOnline bool            `json:"gatewayOnline"`
}

// NewDashboardHandler returns the handler for GET /v1/dashboard.
// gatewayOnline is derived from reading staleness, not from the stored
// online flag.
func NewDashboardHandler(src ReadingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID, ok := workspaceIDParam(w, r)
		if !ok {
			return
		}

		latest, err := src.LatestReading(r.Context(), workspaceID)
		if errors.Is(err, store.ErrNotFound) {
			response.JSON(w, dashboardResponse{})
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to load dashboard")
			return
		}

		reportedAt := latest.CreatedAt.UTC().Format(time.RFC3339)
		response.JSON(w, dashboardResponse{
			LatestReport:  latest,
			ReportedAt:    &reportedAt,
			GatewayOnline: aggregate.Online(latest.CreatedAt, time.Now()),
		})
	}
}

// workspaceIDParam parses the required workspace_id query parameter,
// writing a 400 on failure.
func workspaceIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("workspace_id")
	if raw == "" {
		response.Error(w, http.StatusBadRequest, "workspace_id is required")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "workspace_id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"

	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/pkg/models"
)

// Submitter defines the ingestion interface the report handler depends on.
type Submitter interface {
	Submit(ctx context.Context, ws *models.Workspace, payload models.ReportPayload) (*models.Reading, error)
}

// NewReportHandler returns the handler for POST /v1/report, the sole write
// path into the reading store. The workspace arrives pre-resolved from the
// auth middleware.
func NewReportHandler(svc Submitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, ok := mw.GetWorkspace(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing workspace credential")
			return
		}

		var payload models.ReportPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		if _, err := svc.Submit(r.Context(), ws, payload); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to store report")
			return
		}

		response.Success(w)
	}
}

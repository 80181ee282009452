package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agentpulse/agentpulse/internal/aggregate"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/internal/cache"
	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	statusCacheTTL     = 30 * time.Second
	maxStatusIncidents = 20
)

// StatusStore is the store surface the public status page reads from.
type StatusStore interface {
	GetWorkspaceBySlug(ctx context.Context, slug string) (*models.Workspace, error)
	GetWorkspaceByHostname(ctx context.Context, hostname string) (*models.Workspace, error)
	LatestReading(ctx context.Context, workspaceID uuid.UUID) (*models.Reading, error)
	ListReadingsSince(ctx context.Context, workspaceID uuid.UUID, since time.Time, limit int) ([]*models.Reading, error)
	UptimeCounts(ctx context.Context, workspaceID uuid.UUID, since time.Time) (int, int, error)
}

type statusResponse struct {
	Name      string               `json:"name"`
	Slug      string               `json:"slug"`
	Online    bool                 `json:"online"`
	Uptime24h *int                 `json:"uptime_24h"`
	Uptime7d  *int                 `json:"uptime_7d"`
	Uptime30d *int                 `json:"uptime_30d"`
	Cost24h   float64              `json:"cost_24h"`
	Incidents []aggregate.Incident `json:"incidents"`
}

// NewStatusHandler returns the handler for GET /v1/status/{slug}. The slug
// resolves first against workspace slugs, then against the hostname of the
// most recent reading. Responses are cached briefly since status pages are
// the one unauthenticated high-traffic read.
func NewStatusHandler(st StatusStore, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			response.Error(w, http.StatusBadRequest, "Missing status page identifier")
			return
		}

		if ca != nil {
			if cached, ok, err := ca.Get(r.Context(), cache.StatusPageKey(slug)); err == nil && ok {
				w.Header().Set("Content-Type", "application/json")
				w.Write(cached)
				return
			}
		}

		ws, err := st.GetWorkspaceBySlug(r.Context(), slug)
		if errors.Is(err, store.ErrNotFound) {
			ws, err = st.GetWorkspaceByHostname(r.Context(), slug)
		}
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Status page not found")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to load status page")
			return
		}

		if !ws.Public {
			response.Error(w, http.StatusForbidden, "This status page is private")
			return
		}

		body, err := buildStatus(r.Context(), st, ws)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to load status page")
			return
		}

		if ca != nil {
			if raw, err := json.Marshal(body); err == nil {
				// Cache write failures are invisible to the caller.
				_ = ca.Set(r.Context(), cache.StatusPageKey(slug), raw, statusCacheTTL)
			}
		}

		response.JSON(w, body)
	}
}

func buildStatus(ctx context.Context, st StatusStore, ws *models.Workspace) (*statusResponse, error) {
	now := time.Now()

	out := &statusResponse{
		Name:      ws.Name,
		Incidents: []aggregate.Incident{},
	}
	if ws.Slug != nil {
		out.Slug = *ws.Slug
	}

	latest, err := st.LatestReading(ctx, ws.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No readings yet: offline, all windows null.
	case err != nil:
		return nil, err
	default:
		out.Online = aggregate.Online(latest.CreatedAt, now)
	}

	for _, win := range []struct {
		d    time.Duration
		dest **int
	}{
		{24 * time.Hour, &out.Uptime24h},
		{7 * 24 * time.Hour, &out.Uptime7d},
		{30 * 24 * time.Hour, &out.Uptime30d},
	} {
		online, total, err := st.UptimeCounts(ctx, ws.ID, now.Add(-win.d))
		if err != nil {
			return nil, err
		}
		*win.dest = aggregate.UptimePercent(online, total)
	}

	recent, err := st.ListReadingsSince(ctx, ws.ID, now.Add(-24*time.Hour), aggregate.MaxHistoryRows)
	if err != nil {
		return nil, err
	}
	out.Cost24h = aggregate.CostSum(recent)
	out.Incidents = aggregate.Incidents(recent, maxStatusIncidents)

	return out, nil
}

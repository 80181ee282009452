package api

import (
	"net/http"

	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	UserAuth  *mw.UserAuth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	ReportHandler http.HandlerFunc

	DashboardHandler http.HandlerFunc
	HistoryHandler   http.HandlerFunc
	AgentsHandler    http.HandlerFunc
	StatusHandler    http.HandlerFunc

	CreateWorkspace http.HandlerFunc
	UpdateSettings  http.HandlerFunc
	CreateInvite    http.HandlerFunc
	ValidateInvite  http.HandlerFunc
	AcceptInvite    http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public reads: health, dashboard queries, status pages, invite checks.
	r.Get("/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/v1/dashboard", orNotImplemented(deps.DashboardHandler))
	r.Get("/v1/history", orNotImplemented(deps.HistoryHandler))
	r.Get("/v1/agents", orNotImplemented(deps.AgentsHandler))
	r.Get("/v1/status/{slug}", orNotImplemented(deps.StatusHandler))
	r.Get("/v1/invite/validate", orNotImplemented(deps.ValidateInvite))

	// Report submission: workspace secret key + rate limit.
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/v1/report", orNotImplemented(deps.ReportHandler))
	})

	// Human-facing management: session JWT.
	r.Group(func(r chi.Router) {
		r.Use(deps.UserAuth.Authenticate)

		r.Post("/v1/workspace", orNotImplemented(deps.CreateWorkspace))
		r.Patch("/v1/workspace/settings", orNotImplemented(deps.UpdateSettings))
		r.Post("/v1/workspace/invite", orNotImplemented(deps.CreateInvite))
		r.Post("/v1/invite/accept", orNotImplemented(deps.AcceptInvite))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "Endpoint not yet implemented")
	}
}

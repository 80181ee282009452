package middleware

import (
	"context"
	"net/http"

	"github.com/agentpulse/agentpulse/pkg/models"
)

type contextKey string

const (
	workspaceKey contextKey = "workspace"
	userKey      contextKey = "user"
)

// SetWorkspace stores the credential-resolved workspace in the context.
func SetWorkspace(ctx context.Context, ws *models.Workspace) context.Context {
	return context.WithValue(ctx, workspaceKey, ws)
}

// GetWorkspace returns the workspace resolved by the auth middleware.
func GetWorkspace(r *http.Request) (*models.Workspace, bool) {
	ws, ok := r.Context().Value(workspaceKey).(*models.Workspace)
	return ws, ok
}

// SetUser stores the session-token identity in the context.
func SetUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the user resolved by the session auth middleware.
func GetUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(userKey).(*SessionUser)
	return u, ok
}

package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

// NewCreateInviteHandler returns the handler for POST /v1/workspace/invite.
// An invite transfers workspace ownership; an already-owned workspace can
// only be re-invited by its current owner.
func NewCreateInviteHandler(st store.Store, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := mw.GetUser(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing session")
			return
		}

		var req struct {
			WorkspaceID string `json:"workspace_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		workspaceID, err := uuid.Parse(req.WorkspaceID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "workspace_id must be a valid UUID")
			return
		}

		ws, err := st.GetWorkspaceByID(r.Context(), workspaceID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Workspace not found")
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to create invite")
			return
		}
		if ws.OwnerID != nil && *ws.OwnerID != user.ID {
			response.Error(w, http.StatusForbidden, "You do not own this workspace")
			return
		}

		buf := make([]byte, 24)
		if _, err := rand.Read(buf); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to create invite")
			return
		}

		now := time.Now().UTC()
		inv := &models.Invite{
			ID:          uuid.New(),
			Token:       hex.EncodeToString(buf),
			WorkspaceID: workspaceID,
			ExpiresAt:   now.Add(ttl),
			CreatedAt:   now,
		}
		if err := st.CreateInvite(r.Context(), inv); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to create invite")
			return
		}

		response.JSON(w, map[string]any{
			"token":      inv.Token,
			"expires_at": inv.ExpiresAt.Format(time.RFC3339),
		})
	}
}

// NewValidateInviteHandler returns the handler for GET /v1/invite/validate.
func NewValidateInviteHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			response.Error(w, http.StatusBadRequest, "token is required")
			return
		}

		inv, ok := lookupInvite(w, r, st, token)
		if !ok {
			return
		}

		body := map[string]any{
			"valid":        true,
			"workspace_id": inv.WorkspaceID,
			"expires_at":   inv.ExpiresAt.Format(time.RFC3339),
		}
		if ws, err := st.GetWorkspaceByID(r.Context(), inv.WorkspaceID); err == nil {
			body["workspace_name"] = ws.Name
		}
		response.JSON(w, body)
	}
}

// NewAcceptInviteHandler returns the handler for POST /v1/invite/accept.
// Consumption is at-most-once: the store-level used_at guard decides the
// winner between concurrent accepts.
func NewAcceptInviteHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := mw.GetUser(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing session")
			return
		}

		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
			response.Error(w, http.StatusBadRequest, "token is required")
			return
		}

		inv, ok := lookupInvite(w, r, st, req.Token)
		if !ok {
			return
		}

		now := time.Now().UTC()
		if err := st.UpsertUser(r.Context(), &models.User{
			ID: user.ID, Email: user.Email, Name: user.Name,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to accept invite")
			return
		}

		if err := st.ConsumeInvite(r.Context(), inv.ID, now); err != nil {
			if errors.Is(err, store.ErrInviteUsed) {
				response.Error(w, http.StatusGone, "Invite already used")
				return
			}
			response.Error(w, http.StatusInternalServerError, "Failed to accept invite")
			return
		}

		if err := st.UpdateWorkspaceOwner(r.Context(), inv.WorkspaceID, user.ID); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to accept invite")
			return
		}

		response.Success(w)
	}
}

// lookupInvite fetches an invite and writes the distinguishing not-found /
// used / expired errors. Returns false when a response was already written.
func lookupInvite(w http.ResponseWriter, r *http.Request, st store.Store, token string) (*models.Invite, bool) {
	inv, err := st.GetInviteByToken(r.Context(), token)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Invite not found")
		return nil, false
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to load invite")
		return nil, false
	}
	if inv.Used() {
		response.Error(w, http.StatusGone, "Invite already used")
		return nil, false
	}
	if inv.Expired(time.Now()) {
		response.Error(w, http.StatusGone, "Invite expired")
		return nil, false
	}
	return inv, true
}

package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// NewCreateWorkspaceHandler returns the handler for POST /v1/workspace.
// The raw secret key is returned exactly once; only its bcrypt hash is
// stored.
func NewCreateWorkspaceHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := mw.GetUser(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing session")
			return
		}

		var req struct {
			Name   string  `json:"name"`
			Slug   *string `json:"slug"`
			Public bool    `json:"public"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "name is required")
			return
		}

		now := time.Now().UTC()
		if err := st.UpsertUser(r.Context(), &models.User{
			ID: user.ID, Email: user.Email, Name: user.Name,
			CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to create workspace")
			return
		}

		rawKey, keyHash, keyPrefix, err := generateSecretKey()
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to create workspace")
			return
		}

		ownerID := user.ID
		ws := &models.Workspace{
			ID:        uuid.New(),
			Name:      req.Name,
			Slug:      req.Slug,
			OwnerID:   &ownerID,
			KeyHash:   keyHash,
			KeyPrefix: keyPrefix,
			Public:    req.Public,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.CreateWorkspace(r.Context(), ws); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusBadRequest, "Slug already in use")
				return
			}
			response.Error(w, http.StatusInternalServerError, "Failed to create workspace")
			return
		}

		response.JSON(w, map[string]any{
			"workspace":  ws,
			"secret_key": rawKey,
		})
	}
}

// NewUpdateSettingsHandler returns the handler for PATCH
// /v1/workspace/settings. Only the workspace owner may mutate settings.
func NewUpdateSettingsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := mw.GetUser(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "Missing session")
			return
		}

		var req struct {
			WorkspaceID          string   `json:"workspace_id"`
			Name                 *string  `json:"name"`
			Slug                 *string  `json:"slug"`
			Public               *bool    `json:"public"`
			AlertCostThreshold   *float64 `json:"alert_cost_threshold"`
			AlertDowntimeMinutes *int     `json:"alert_downtime_minutes"`
			AlertWebhookURL      *string  `json:"alert_webhook_url"`

			// Omitted fields are left untouched, so clearing an alert
			// setting needs an explicit flag.
			ClearCostThreshold   bool `json:"clear_alert_cost_threshold"`
			ClearDowntimeMinutes bool `json:"clear_alert_downtime_minutes"`
			ClearWebhook         bool `json:"clear_alert_webhook"`
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
			response.Error(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}
		if ws.OwnerID == nil || *ws.OwnerID != user.ID {
			response.Error(w, http.StatusForbidden, "You do not own this workspace")
			return
		}

		settings := store.AlertSettings{
			Name:                 req.Name,
			Slug:                 req.Slug,
			Public:               req.Public,
			CostThreshold:        req.AlertCostThreshold,
			DowntimeMinutes:      req.AlertDowntimeMinutes,
			WebhookURL:           req.AlertWebhookURL,
			ClearCostThreshold:   req.ClearCostThreshold,
			ClearDowntimeMinutes: req.ClearDowntimeMinutes,
			ClearWebhook:         req.ClearWebhook,
		}
		if err := st.UpdateWorkspaceSettings(r.Context(), workspaceID, settings); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusBadRequest, "Slug already in use")
				return
			}
			response.Error(w, http.StatusInternalServerError, "Failed to update settings")
			return
		}

		response.Success(w)
	}
}

// generateSecretKey mints a workspace credential: the raw key (shown once),
// its bcrypt hash, and the lookup prefix.
func generateSecretKey() (raw, hash, prefix string, err error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("generate key: %w", err)
	}
	raw = "apk_" + hex.EncodeToString(buf)

	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hash key: %w", err)
	}
	return raw, string(hashed), raw[:8], nil
}

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

const inviteTTL = 7 * 24 * time.Hour

func createInvite(t *testing.T, st store.Store, h http.HandlerFunc, wsID, userID uuid.UUID) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r := withUser(jsonReq(t, http.MethodPost, "/v1/workspace/invite", map[string]any{
		"workspace_id": wsID.String(),
	}), userID)
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("create invite: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("create invite: empty token")
	}
	return token
}

func TestCreateInvite_OwnerOnly(t *testing.T) {
	st := store.NewMemoryStore()
	owner := uuid.New()
	ws := seedOwnedWorkspace(t, st, &owner)

	h := NewCreateInviteHandler(st, inviteTTL)
	rec := httptest.NewRecorder()

	r := withUser(jsonReq(t, http.MethodPost, "/v1/workspace/invite", map[string]any{
		"workspace_id": ws.ID.String(),
	}), uuid.New())
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}
}

// A workspace with no owner can be invited by any signed-in user. That is
// how the first owner claims a key-only workspace.
func TestCreateInvite_UnownedWorkspace(t *testing.T) {
	st := store.NewMemoryStore()
	ws := seedOwnedWorkspace(t, st, nil)

	h := NewCreateInviteHandler(st, inviteTTL)
	rec := httptest.NewRecorder()

	r := withUser(jsonReq(t, http.MethodPost, "/v1/workspace/invite", map[string]any{
		"workspace_id": ws.ID.String(),
	}), uuid.New())
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unowned workspace, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["token"] == "" || body["token"] == nil {
		t.Error("missing token")
	}
	if body["expires_at"] == nil {
		t.Error("missing expires_at")
	}
}

func TestCreateInvite_WorkspaceNotFound(t *testing.T) {
	h := NewCreateInviteHandler(store.NewMemoryStore(), inviteTTL)
	rec := httptest.NewRecorder()

	r := withUser(jsonReq(t, http.MethodPost, "/v1/workspace/invite", map[string]any{
		"workspace_id": uuid.NewString(),
	}), uuid.New())
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestValidateInvite_MissingToken(t *testing.T) {
	h := NewValidateInviteHandler(store.NewMemoryStore())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/invite/validate", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestValidateInvite_NotFound(t *testing.T) {
	h := NewValidateInviteHandler(store.NewMemoryStore())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/invite/validate?token=abc", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if errText(t, rec) != "Invite not found" {
		t.Errorf("unexpected error: %q", errText(t, rec))
	}
}

func TestValidateInvite_Expired(t *testing.T) {
	st := store.NewMemoryStore()
	ws := seedOwnedWorkspace(t, st, nil)

	now := time.Now().UTC()
	inv := &models.Invite{
		ID:          uuid.New(),
		Token:       "expired-token",
		WorkspaceID: ws.ID,
		ExpiresAt:   now.Add(-time.Hour),
		CreatedAt:   now.Add(-2 * time.Hour),
	}
	if err := st.CreateInvite(context.Background(), inv); err != nil {
		t.Fatalf("create invite: %v", err)
	}

	h := NewValidateInviteHandler(st)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/invite/validate?token=expired-token", nil))

	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}
	if errText(t, rec) != "Invite expired" {
		t.Errorf("unexpected error: %q", errText(t, rec))
	}
}

func TestValidateInvite_Success(t *testing.T) {
	st := store.NewMemoryStore()
	owner := uuid.New()
	ws := seedOwnedWorkspace(t, st, &owner)
	token := createInvite(t, st, NewCreateInviteHandler(st, inviteTTL), ws.ID, owner)

	h := NewValidateInviteHandler(st)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/invite/validate?token="+token, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["valid"] != true {
		t.Errorf("expected valid=true, got %v", body["valid"])
	}
	if body["workspace_id"] != ws.ID.String() {
		t.Errorf("unexpected workspace_id: %v", body["workspace_id"])
	}
	if body["workspace_name"] != ws.Name {
		t.Errorf("unexpected workspace_name: %v", body["workspace_name"])
	}
}

func TestAcceptInvite_MissingSession(t *testing.T) {
	h := NewAcceptInviteHandler(store.NewMemoryStore())
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, jsonReq(t, http.MethodPost, "/v1/invite/accept", map[string]any{"token": "abc"}))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAcceptInvite_TransfersOwnership(t *testing.T) {
	st := store.NewMemoryStore()
	owner := uuid.New()
	ws := seedOwnedWorkspace(t, st, &owner)
	token := createInvite(t, st, NewCreateInviteHandler(st, inviteTTL), ws.ID, owner)

	newOwner := uuid.New()
	h := NewAcceptInviteHandler(st)
	rec := httptest.NewRecorder()

	r := withUser(jsonReq(t, http.MethodPost, "/v1/invite/accept", map[string]any{"token": token}), newOwner)
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, err := st.GetWorkspaceByID(context.Background(), ws.ID)
	if err != nil {
		t.Fatalf("reload workspace: %v", err)
	}
	if updated.OwnerID == nil || *updated.OwnerID != newOwner {
		t.Errorf("ownership not transferred: %v", updated.OwnerID)
	}
}

func TestAcceptInvite_ConsumeOnce(t *testing.T) {
	st := store.NewMemoryStore()
	owner := uuid.New()
	ws := seedOwnedWorkspace(t, st, &owner)
	token := createInvite(t, st, NewCreateInviteHandler(st, inviteTTL), ws.ID, owner)

	h := NewAcceptInviteHandler(st)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withUser(jsonReq(t, http.MethodPost, "/v1/invite/accept", map[string]any{"token": token}), uuid.New()))
	if rec.Code != http.StatusOK {
		t.Fatalf("first accept: expected 200, got %d", rec.Code)
	}

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, withUser(jsonReq(t, http.MethodPost, "/v1/invite/accept", map[string]any{"token": token}), uuid.New()))
	if rec2.Code != http.StatusGone {
		t.Fatalf("second accept: expected 410, got %d", rec2.Code)
	}
	if errText(t, rec2) != "Invite already used" {
		t.Errorf("unexpected error: %q", errText(t, rec2))
	}
}

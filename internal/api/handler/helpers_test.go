package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/pkg/models"
	"github.com/google/uuid"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int         { return &v }

func jsonReq(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	r := httptest.NewRequest(method, target, bytes.NewReader(b))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func withUser(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(mw.SetUser(r.Context(), &mw.SessionUser{
		ID:    id,
		Email: "user@example.com",
		Name:  "Test User",
	}))
}

func withWorkspace(r *http.Request, ws *models.Workspace) *http.Request {
	return r.WithContext(mw.SetWorkspace(r.Context(), ws))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func errText(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	msg, _ := decodeBody(t, rec)["error"].(string)
	return msg
}

// mockReadingSource serves canned readings to the query handlers and
// captures the limits it was asked for.
type mockReadingSource struct {
	latest    *models.Reading
	latestErr error
	list      []*models.Reading
	listErr   error

	gotLimit int
	gotSince time.Time
}

func (m *mockReadingSource) LatestReading(_ context.Context, _ uuid.UUID) (*models.Reading, error) {
	return m.latest, m.latestErr
}

func (m *mockReadingSource) ListReadings(_ context.Context, _ uuid.UUID, limit int) ([]*models.Reading, error) {
	m.gotLimit = limit
	return m.list, m.listErr
}

func (m *mockReadingSource) ListReadingsSince(_ context.Context, _ uuid.UUID, since time.Time, limit int) ([]*models.Reading, error) {
	m.gotSince = since
	m.gotLimit = limit
	return m.list, m.listErr
}

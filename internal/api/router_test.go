package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/internal/store"
)

func testRouter(deps Dependencies) http.Handler {
	if deps.Auth == nil {
		deps.Auth = mw.NewAuth(store.NewMemoryStore())
	}
	if deps.UserAuth == nil {
		deps.UserAuth = mw.NewUserAuth("router-test-secret")
	}
	if deps.RateLimit == nil {
		deps.RateLimit = mw.NewRateLimit(nil, 0)
	}
	return NewRouter(deps)
}

func TestRouter_UnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(Dependencies{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRouter_HealthRoute(t *testing.T) {
	called := false
	deps := Dependencies{
		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		},
	}

	rec := httptest.NewRecorder()
	testRouter(deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if !called {
		t.Fatal("health handler not invoked")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouter_ReportRequiresKey(t *testing.T) {
	deps := Dependencies{
		ReportHandler: func(w http.ResponseWriter, _ *http.Request) {
			t.Error("report handler must not run without a key")
		},
	}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/v1/report", strings.NewReader("{}"))
	testRouter(deps).ServeHTTP(rec, r)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_ManagementRequiresSession(t *testing.T) {
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/v1/workspace"},
		{http.MethodPatch, "/v1/workspace/settings"},
		{http.MethodPost, "/v1/workspace/invite"},
		{http.MethodPost, "/v1/invite/accept"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(p.method, p.path, strings.NewReader("{}"))
			testRouter(Dependencies{}).ServeHTTP(rec, r)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRouter_PublicReadsReachable(t *testing.T) {
	paths := []string{
		"/v1/dashboard",
		"/v1/history",
		"/v1/agents",
		"/v1/status/some-page",
		"/v1/invite/validate",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			rec := httptest.NewRecorder()
			testRouter(Dependencies{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))

			// Handlers are nil here, so the placeholder answers. The
			// point is that no auth layer got in the way.
			if rec.Code != http.StatusNotImplemented {
				t.Fatalf("expected 501 placeholder, got %d", rec.Code)
			}
		})
	}
}

func TestRouter_NilHandlerPlaceholder(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(Dependencies{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for unset handler, got %d", rec.Code)
	}
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefixLen = 8

// Auth resolves the workspace secret key carried in the Authorization
// header. This is the single authentication path for report submission;
// handlers read the resolved workspace from the request context.
type Auth struct {
	store store.Store
}

// NewAuth creates a new Auth middleware.
func NewAuth(s store.Store) *Auth {
	return &Auth{store: s}
}

// Authenticate validates the Bearer key, looks up candidate workspaces by
// key prefix, and sets the matching workspace in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawKey := extractBearerToken(r)
		if rawKey == "" {
			response.Error(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		if len(rawKey) < keyPrefixLen {
			response.Error(w, http.StatusUnauthorized, "Invalid workspace key format")
			return
		}

		prefix := rawKey[:keyPrefixLen]

		candidates, err := a.store.GetWorkspacesByKeyPrefix(r.Context(), prefix)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "Failed to validate workspace key")
			return
		}

		for _, ws := range candidates {
			if bcrypt.CompareHashAndPassword([]byte(ws.KeyHash), []byte(rawKey)) == nil {
				r = r.WithContext(SetWorkspace(r.Context(), ws))
				next.ServeHTTP(w, r)
				return
			}
		}

		response.Error(w, http.StatusUnauthorized, "Invalid workspace key")
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package middleware

import (
	"fmt"
	"net/http"

	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionUser is the identity extracted from a session token. Tokens are
// minted by the external OAuth layer; this service only verifies them.
type SessionUser struct {
	ID    uuid.UUID
	Email string
	Name  string
}

// UserAuth verifies HMAC-signed session JWTs for the human-facing
// endpoints (workspace management, invites).
type UserAuth struct {
	secret []byte
}

// NewUserAuth creates a new UserAuth middleware.
func NewUserAuth(secret string) *UserAuth {
	return &UserAuth{secret: []byte(secret)}
}

// Authenticate validates the Bearer JWT and sets the session user in the
// request context.
func (a *UserAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractBearerToken(r)
		if raw == "" {
			response.Error(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}

		user, err := a.parseToken(raw)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid session token")
			return
		}

		r = r.WithContext(SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

func (a *UserAuth) parseToken(raw string) (*SessionUser, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing subject claim")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("subject is not a user id: %w", err)
	}

	user := &SessionUser{ID: id}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		user.Name = name
	}
	return user, nil
}

package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logger writes one line per request. Report submissions are tagged with
// the presented workspace key prefix, which is the non-secret lookup
// portion, so log lines can be correlated with a workspace without
// exposing the credential.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		if prefix := presentedKeyPrefix(r); prefix != "" {
			attrs = append(attrs, "key_prefix", prefix)
		}
		slog.Info("request", attrs...)
	})
}

// presentedKeyPrefix returns the lookup prefix of a workspace key carried
// in the Authorization header, or empty. Session JWTs also arrive as
// bearer tokens; only apk_ credentials qualify.
func presentedKeyPrefix(r *http.Request) string {
	raw := extractBearerToken(r)
	if !strings.HasPrefix(raw, "apk_") || len(raw) < keyPrefixLen {
		return ""
	}
	return raw[:keyPrefixLen]
}

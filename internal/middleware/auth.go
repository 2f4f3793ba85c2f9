package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

const APIKeyHeader = "X-API-Key"

// APIKeyAuth guards routes with a single static key. An empty key disables the check.
type APIKeyAuth struct {
	key []byte
}

func NewAPIKeyAuth(key string) *APIKeyAuth {
	return &APIKeyAuth{key: []byte(strings.TrimSpace(key))}
}

func (a *APIKeyAuth) Enabled() bool {
	return a != nil && len(a.key) > 0
}

// Middleware accepts the key in X-API-Key or as a Bearer token.
func (a *APIKeyAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		presented := r.Header.Get(APIKeyHeader)
		if presented == "" {
			if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				presented = parts[1]
			}
		}

		if presented == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing API key", r)
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), a.key) != 1 {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid API key", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}

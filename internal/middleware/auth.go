package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/easyimg/service/internal/capability"
	"github.com/easyimg/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// clientIDKey is the context key for the verified client identity.
const clientIDKey contextKey = "clientID"

// APIKeyHeader carries the capability on tenant-scoped calls.
const APIKeyHeader = "X-API-Key"

// AdminTokenHeader carries the admin session token.
const AdminTokenHeader = "X-Admin-Token"

// ClientIDFromContext returns the identity injected by RequireAPIKey.
func ClientIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey).(string)
	return v
}

// RequireAPIKey returns middleware that verifies the X-API-Key capability
// and injects the recovered client ID into the request context. Every
// failure path (missing header, malformed key, bad signature) answers with
// the same authentication error.
func RequireAPIKey(caps *capability.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key == "" {
				response.Unauthorized(w, "API key required")
				return
			}

			clientID, err := caps.Verify(key)
			if err != nil {
				response.Unauthorized(w, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), clientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns middleware that validates the admin session JWT from
// the X-Admin-Token header (or an Authorization: Bearer fallback).
func RequireAdmin(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(AdminTokenHeader))
			if raw == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					raw = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				}
			}
			if raw == "" {
				response.Unauthorized(w, "admin token required")
				return
			}

			token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				response.Unauthorized(w, "invalid or expired admin token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

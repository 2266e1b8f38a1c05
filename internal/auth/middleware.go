package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Arwindpianist/gridhealth/internal/server"
)

type contextKey string

const authUserKey contextKey = "auth_user"

// publicPaths are API routes that never require authentication.
var publicPaths = map[string]bool{
	"/api/v1/auth/login":        true,
	"/api/v1/auth/refresh":      true,
	"/api/v1/auth/setup":        true,
	"/api/v1/auth/setup/status": true,
	"/api/v1/health":            true,
}

// AuthMiddleware validates Bearer tokens on protected API routes.
// Non-API paths (health probes, metrics, swagger, websocket upgrades)
// pass through unchanged.
func AuthMiddleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") || publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// WebSocket upgrades authenticate via query token; the
			// browser WebSocket API cannot set an Authorization header.
			if strings.HasPrefix(r.URL.Path, "/api/v1/ws/") {
				next.ServeHTTP(w, r)
				return
			}

			token := extractBearer(r)
			if token == "" {
				server.Unauthorized(w, "missing bearer token", r.URL.Path)
				return
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				server.Unauthorized(w, "invalid or expired token", r.URL.Path)
				return
			}

			ctx := context.WithValue(r.Context(), authUserKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the validated token claims for the request,
// or nil if the request was not authenticated.
func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(authUserKey).(*Claims)
	return claims
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

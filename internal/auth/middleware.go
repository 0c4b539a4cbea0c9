// internal/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// Middleware authenticates each request via the auth_token cookie or a bearer
// Authorization header and stores the resolved Identity on the context.
// Requests without a valid identity are rejected before reaching handlers.
func Middleware(resolver Resolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFrom(r)
			if token == "" {
				http.Error(w, "missing auth_token", http.StatusUnauthorized)
				return
			}
			id, err := resolver.ResolveIdentity(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), contextKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the Identity stored by Middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// TokenFrom pulls the caller's token from the Authorization header, the
// auth_token cookie, or a token query parameter. The query form exists for
// websocket upgrades, where browsers cannot set headers.
func TokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if t := extractCookieToken(r.Header.Get("Cookie"), "auth_token"); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

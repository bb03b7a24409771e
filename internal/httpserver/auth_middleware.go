package httpserver

import (
	"context"
	"net/http"
	"strings"

	"chatroom/internal/domain"
	"chatroom/internal/security"
)

type contextKey string

const principalContextKey contextKey = "currentPrincipal"

// WithPrincipal returns a new context carrying the current principal.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// CurrentPrincipal extracts the current principal from the request context.
func CurrentPrincipal(r *http.Request) *domain.Principal {
	if v := r.Context().Value(principalContextKey); v != nil {
		if p, ok := v.(*domain.Principal); ok {
			return p
		}
	}
	return nil
}

// AuthMiddleware validates the Bearer token and attaches the principal
// resolved from its profile document to the context.
func AuthMiddleware(tokens *security.TokenService, profiles domain.ProfileStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
				return
			}
			tokenStr := strings.TrimSpace(authHeader[len("Bearer "):])

			sub, err := tokens.Subject(tokenStr)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			principal, err := profiles.GetProfile(r.Context(), sub)
			if err != nil || principal == nil {
				http.Error(w, "principal not found", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

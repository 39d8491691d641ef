package middleware

import (
	"context"
	"net/http"

	"github.com/eventradar/server/internal/api/problem"
	"github.com/eventradar/server/internal/auth"
)

const principalKey contextKey = "principal"

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	UserID string
	Email  string
}

// RequireAuth rejects requests without a valid bearer token. A missing
// Authorization header yields 401; a malformed, tampered, or expired token
// yields 400. The decoded principal is placed in the request context.
func RequireAuth(tokens *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized,
					"Authentication required", err, env,
					problem.WithDetail("Access denied"))
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				problem.Write(w, r, http.StatusBadRequest, problem.TypeUnauthorized,
					"Invalid token", err, env,
					problem.WithDetail("Invalid token"))
				return
			}

			principal := Principal{UserID: claims.UserID(), Email: claims.Email}
			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}

// WithPrincipal returns a context carrying the given principal. Test helper
// for exercising protected handlers without minting tokens.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

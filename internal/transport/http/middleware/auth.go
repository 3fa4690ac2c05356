package middleware

import (
	"context"
	"net/http"
	"strings"

	"postshare/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// IdentityKey is the context key for the caller identity decoded
	// from the bearer token.
	IdentityKey contextKey = "identity"
)

// Identity attaches the caller identity decoded from the Authorization
// header to the request context. It fails open: requests without a
// token, or with an invalid or expired one, continue with no identity.
// Operations that require a caller reject at dispatch instead, so
// anonymous reads never break on a stale token.
func Identity(resolve func(token string) *model.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity := resolve(tokenString)
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetIdentityFromContext extracts the caller identity from the request
// context. Returns nil for anonymous requests.
func GetIdentityFromContext(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(IdentityKey).(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

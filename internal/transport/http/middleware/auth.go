package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/shop-accounts-api/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// AccessTokenCookie is where browser clients carry the access token.
const AccessTokenCookie = "access_token"

// AccessVerifier validates an access token and returns its claims.
type AccessVerifier interface {
	VerifyAccess(tokenString string) (*jwtinfra.AccessClaims, error)
}

// Auth returns middleware that validates the access token and injects its
// claims into the request context. The token is read from the
// Authorization header first, falling back to the access_token cookie set
// for browser clients.
func Auth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authentication token")
				return
			}
			claims, err := verifier.VerifyAccess(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// ClaimsFromContext extracts the access claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.AccessClaims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.AccessClaims)
	return c, ok
}

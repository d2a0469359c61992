package middleware

import (
	"net/http"
	"strings"

	"github.com/glowdesk/platform/internal/http/respond"
	"github.com/glowdesk/platform/internal/identity"
)

// TokenParser validates an access token and returns the identity it carries.
type TokenParser interface {
	Parse(token string) (identity.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// claims on the request context for the handlers downstream.
func RequireAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := bearerClaims(parser, r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "unauthorized", "a valid bearer token is required")
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid token is present and lets the
// request through either way. Browsing endpoints use it to tailor results for
// staff without locking out anonymous visitors.
func OptionalAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := bearerClaims(parser, r); ok {
				r = r.WithContext(identity.WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerClaims(parser TokenParser, r *http.Request) (identity.Claims, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return identity.Claims{}, false
	}
	claims, err := parser.Parse(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return identity.Claims{}, false
	}
	return claims, true
}

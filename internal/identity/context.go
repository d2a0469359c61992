package identity

import "context"

type ctxKey string

const claimsKey ctxKey = "glowdesk.claims"

// WithClaims stores the actor's claims in context.
func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts the actor's claims if present.
func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	val := ctx.Value(claimsKey)
	if val == nil {
		return Claims{}, false
	}
	claims, ok := val.(Claims)
	return claims, ok && claims.Valid()
}

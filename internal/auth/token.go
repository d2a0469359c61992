package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glowdesk/platform/internal/identity"
	"github.com/glowdesk/platform/internal/users"
)

const tokenIssuer = "glowdesk"

type tokenClaims struct {
	Phone   string `json:"phone"`
	Role    string `json:"role"`
	SalonID string `json:"salon_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and parses HMAC-signed access tokens carrying the
// identity claims the access policy runs on.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer. An empty secret is a configuration bug.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if secret == "" {
		panic("auth: jwt secret required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the user.
func (t *TokenIssuer) Issue(user *users.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Phone:   user.Phone,
		Role:    string(user.Role),
		SalonID: user.SalonID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and extracts the identity claims.
func (t *TokenIssuer) Parse(tokenString string) (identity.Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return identity.Claims{}, ErrInvalidToken
	}

	out := identity.Claims{
		UserID:  claims.Subject,
		Phone:   claims.Phone,
		Role:    identity.Role(claims.Role),
		SalonID: claims.SalonID,
	}
	if !out.Valid() {
		return identity.Claims{}, ErrInvalidToken
	}
	return out, nil
}

package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenParser reads identity-backend access tokens.
type TokenParser struct {
	secret []byte
	now    func() time.Time
}

// NewTokenParser builds a parser. Without a secret, signatures are not verified.
func NewTokenParser(secret string) *TokenParser {
	p := &TokenParser{now: time.Now}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// Claims describes the access token payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Parse returns claims for tokenStr and fails with jwt.ErrTokenExpired for expired tokens.
func (p *TokenParser) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, errors.New("empty token")
	}
	claims := &Claims{}

	if p.secret == nil {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
			return nil, err
		}
		if exp := claims.Expiry(); !exp.IsZero() && !p.now().Before(exp) {
			return nil, fmt.Errorf("%w: expired at %s", jwt.ErrTokenExpired, exp.Format(time.RFC3339))
		}
		return claims, nil
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Package auth validates bearer tokens for the HTTP API.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims identifies the authenticated caller.
type Claims struct {
	UserID string
	Role   string
}

// Validator checks a bearer token and returns the caller's claims.
type Validator interface {
	Validate(ctx context.Context, token string) (Claims, error)
}

// JWTValidator validates HS256-signed tokens against a shared secret.
type JWTValidator struct {
	secret []byte
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (v *JWTValidator) Validate(_ context.Context, token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrMissingToken
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: claims.Subject, Role: claims.Role}, nil
}

// NoopValidator accepts every request. Used when no JWT secret is configured,
// for local development.
type NoopValidator struct{}

func (NoopValidator) Validate(context.Context, string) (Claims, error) {
	return Claims{UserID: "anonymous"}, nil
}

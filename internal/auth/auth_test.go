package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims tokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWTValidator(t *testing.T) {
	const secret = "test-secret"
	v := NewJWTValidator(secret)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, secret, tokenClaims{
			Role: "donor",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		claims, err := v.Validate(ctx, token)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if claims.UserID != "user-1" || claims.Role != "donor" {
			t.Errorf("claims = %+v, want user-1/donor", claims)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		if _, err := v.Validate(ctx, ""); !errors.Is(err, ErrMissingToken) {
			t.Errorf("err = %v, want ErrMissingToken", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		if _, err := v.Validate(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, secret, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		})
		if _, err := v.Validate(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, secret, tokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		if _, err := v.Validate(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("err = %v, want ErrInvalidToken", err)
		}
	})
}

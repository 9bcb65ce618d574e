package identity

import (
	"context"
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the engine cares about: a stable user
// identifier, either as a dedicated claim or the standard subject.
type Claims struct {
	UserID string `json:"user_id,omitempty"`
	UID    string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) userID() string {
	switch {
	case c.UserID != "":
		return c.UserID
	case c.UID != "":
		return c.UID
	default:
		return c.Subject
	}
}

// Verifier validates HS256 bearer tokens and resolves the user
// identifier. It implements ports.TokenVerifier.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates the token. Callers treat any error as
// anonymous play.
func (v *Verifier) Verify(_ context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", errors.New("invalid token")
	}

	userID := claims.userID()
	if userID == "" {
		return "", errors.New("token carries no user identifier")
	}
	return userID, nil
}

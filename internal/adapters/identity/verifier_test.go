package identity_test

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/hamisigad71/rare-draw-demo1/internal/adapters/identity"
)

func signToken(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestVerify_UserIDClaim(t *testing.T) {
	v := identity.NewVerifier("test-secret")
	token := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": "user-42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	userID, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-42" {
		t.Errorf("user id = %s, want user-42", userID)
	}
}

func TestVerify_SubjectFallback(t *testing.T) {
	v := identity.NewVerifier("test-secret")
	token := signToken(t, "test-secret", jwt.RegisteredClaims{
		Subject:   "user-7",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	userID, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-7" {
		t.Errorf("user id = %s, want user-7", userID)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	v := identity.NewVerifier("right-secret")
	token := signToken(t, "wrong-secret", jwt.MapClaims{"user_id": "user-1"})

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Fatal("expected error for a token signed with the wrong secret")
	}
}

func TestVerify_Expired(t *testing.T) {
	v := identity.NewVerifier("test-secret")
	token := signToken(t, "test-secret", jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	if _, err := v.Verify(context.Background(), token); err == nil {
		t.Fatal("expected error for an expired token")
	}
}

func TestVerify_Garbage(t *testing.T) {
	v := identity.NewVerifier("test-secret")

	if _, err := v.Verify(context.Background(), "not-a-jwt"); err == nil {
		t.Fatal("expected error for a malformed token")
	}
}

package auth

import (
	"testing"
)

func TestGuestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.GenerateGuestToken("guest-123")
	if err != nil {
		t.Fatalf("Expected no error generating token, got %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Expected token to validate, got %v", err)
	}
	if claims.UserID != "guest-123" {
		t.Errorf("Expected user ID guest-123, got %s", claims.UserID)
	}
	if claims.Role != "guest" {
		t.Errorf("Expected role guest, got %s", claims.Role)
	}
	if claims.ExpiresAt == nil {
		t.Error("Expected expiry to be set")
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.GenerateUserToken("user-42")
	if err != nil {
		t.Fatalf("Expected no error generating token, got %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Expected token to validate, got %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("Expected user ID user-42, got %s", claims.UserID)
	}
	if claims.Role != "user" {
		t.Errorf("Expected role user, got %s", claims.Role)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a")
	verifier := NewTokenService("secret-b")

	token, err := issuer.GenerateGuestToken("guest-123")
	if err != nil {
		t.Fatalf("Expected no error generating token, got %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("Expected validation to fail with different secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret")

	if _, err := svc.ValidateToken("not-a-token"); err == nil {
		t.Error("Expected validation to fail for malformed token")
	}
}

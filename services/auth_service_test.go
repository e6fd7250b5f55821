package services

import (
	"testing"

	"CodeMart/config"
	"CodeMart/models"
)

func newTestAuthService() *AuthService {
	return NewAuthService(nil, &config.AuthConfig{
		JWTSecret:     "test-secret",
		TokenExpiry:   1,
		RefreshExpiry: 24,
	})
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestAuthService()
	user := &models.User{Email: "dev@example.com", Username: "dev"}
	user.ID = 42

	resp, err := svc.GenerateTokens(user)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if resp.TokenType != "Bearer" {
		t.Fatalf("token type = %q, want Bearer", resp.TokenType)
	}

	claims, err := svc.ValidateToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "dev@example.com" || claims.Username != "dev" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService()
	user := &models.User{Email: "dev@example.com", Username: "dev"}
	user.ID = 1

	resp, err := svc.GenerateTokens(user)
	if err != nil {
		t.Fatalf("GenerateTokens: %v", err)
	}

	other := NewAuthService(nil, &config.AuthConfig{
		JWTSecret:   "different-secret",
		TokenExpiry: 1,
	})
	if _, err := other.ValidateToken(resp.AccessToken); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService()
	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected validation to fail for a malformed token")
	}
}

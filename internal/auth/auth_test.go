package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testService() *Service {
	return NewService(Config{
		JWTSecret:  "test-secret",
		BCryptCost: bcrypt.MinCost,
	})
}

// TestHashAndComparePassword tests the bcrypt round trip.
func TestHashAndComparePassword(t *testing.T) {
	svc := testService()

	hash, err := svc.HashPassword("hunter2")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if hash == "hunter2" {
		t.Error("Expected hash to differ from plaintext")
	}

	if err := svc.ComparePassword(hash, "hunter2"); err != nil {
		t.Errorf("Expected matching password to verify, got: %v", err)
	}
	if err := svc.ComparePassword(hash, "wrong"); err != ErrInvalidCredentials {
		t.Errorf("Expected ErrInvalidCredentials, got: %v", err)
	}
}

// TestGenerateAndValidateToken tests the JWT round trip.
func TestGenerateAndValidateToken(t *testing.T) {
	svc := testService()

	token, err := svc.GenerateToken("alice", RoleAdmin)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Expected valid token, got: %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("Expected username alice, got %s", claims.Username)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("Expected role admin, got %s", claims.Role)
	}
	if claims.Issuer != "skymap" {
		t.Errorf("Expected issuer skymap, got %s", claims.Issuer)
	}
}

// TestValidateTokenRejections tests tampered and foreign tokens.
func TestValidateTokenRejections(t *testing.T) {
	svc := testService()

	t.Run("Garbage token", func(t *testing.T) {
		if _, err := svc.ValidateToken("not.a.token"); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken, got: %v", err)
		}
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewService(Config{JWTSecret: "other-secret", BCryptCost: bcrypt.MinCost})
		token, err := other.GenerateToken("bob", RoleViewer)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken for foreign signature, got: %v", err)
		}
	})

	t.Run("Expired token", func(t *testing.T) {
		expired := NewService(Config{
			JWTSecret:     "test-secret",
			TokenDuration: -time.Hour,
			BCryptCost:    bcrypt.MinCost,
		})
		token, err := expired.GenerateToken("carol", RoleViewer)
		if err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
			t.Errorf("Expected ErrInvalidToken for expired token, got: %v", err)
		}
	})
}

// TestCanEditConfig tests role gating.
func TestCanEditConfig(t *testing.T) {
	if !CanEditConfig(RoleAdmin) {
		t.Error("Expected admin to edit config")
	}
	if CanEditConfig(RoleViewer) {
		t.Error("Expected viewer denied")
	}
	if CanEditConfig("") {
		t.Error("Expected empty role denied")
	}
}

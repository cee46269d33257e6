package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adpilot/adpilot/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    "9f3c2a1e-0000-0000-0000-000000000001",
		Email: "ada@example.com",
		Name:  "Ada Lovelace",
	}
}

func TestTokenService_SignAndValidate(t *testing.T) {
	t.Parallel()

	svc, err := NewTokenService("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	user := testUser()
	token, err := svc.Sign(user)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected three-part token, got %q", token)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if claims.Subject != user.ID {
		t.Errorf("Subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.Name != user.Name {
		t.Errorf("Name = %q, want %q", claims.Name, user.Name)
	}
	if claims.JWTID == "" {
		t.Error("JWTID should be set")
	}
	if claims.Issuer != tokenIssuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, tokenIssuer)
	}
}

func TestTokenService_RandomSecretWhenUnset(t *testing.T) {
	t.Parallel()

	svc1, err := NewTokenService("", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	svc2, err := NewTokenService("", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}

	token, err := svc1.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	// A token from one process must not validate under another
	// process's generated secret.
	if _, err := svc2.Validate(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}

	if _, err := svc1.Validate(token); err != nil {
		t.Errorf("token should validate under its own secret: %v", err)
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	t.Parallel()

	svc1, _ := NewTokenService("secret-one", time.Hour)
	svc2, _ := NewTokenService("secret-two", time.Hour)

	token, err := svc1.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := svc2.Validate(token); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if _, err := svc.Validate(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one part", "abc"},
		{"two parts", "abc.def"},
		{"four parts", "a.b.c.d"},
		{"garbage signature", "eyJh.eyJi.%%%"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := svc.Validate(tt.token); err == nil {
				t.Errorf("Validate(%q) should fail", tt.token)
			}
		})
	}
}

func TestTokenService_TamperedClaims(t *testing.T) {
	t.Parallel()

	svc, _ := NewTokenService("test-secret", time.Hour)

	token, err := svc.Sign(testUser())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := base64URLEncode([]byte(`{"iss":"adpilot","sub":"attacker","exp":9999999999}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	if _, err := svc.Validate(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature for tampered claims, got %v", err)
	}
}

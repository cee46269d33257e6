package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
)

// fakeIDToken builds an unsigned JWT with the given payload claims.
func fakeIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))

	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestGoogleClient_AuthURL(t *testing.T) {
	t.Parallel()

	client := NewGoogleClient("client-id", "client-secret", "https://app.example.com/auth/google/callback")

	rawURL := client.AuthURL("state-token-123")

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("AuthURL produced invalid URL: %v", err)
	}

	if !strings.HasPrefix(rawURL, googleAuthURL+"?") {
		t.Errorf("AuthURL should target %s, got %s", googleAuthURL, rawURL)
	}

	q := u.Query()
	if q.Get("client_id") != "client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "https://app.example.com/auth/google/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("scope") != "openid email profile" {
		t.Errorf("scope = %q", q.Get("scope"))
	}
	if q.Get("state") != "state-token-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
}

func TestParseGoogleIDToken_Valid(t *testing.T) {
	t.Parallel()

	token := fakeIDToken(t, map[string]any{
		"sub":            "google-uid-42",
		"email":          "Ada@Example.com",
		"email_verified": true,
		"name":           "Ada Lovelace",
		"picture":        "https://lh3.example.com/photo.jpg",
	})

	profile, verified, err := parseGoogleIDToken(token)
	if err != nil {
		t.Fatalf("parseGoogleIDToken failed: %v", err)
	}

	if !verified {
		t.Error("email should be verified")
	}
	if profile.GoogleID != "google-uid-42" {
		t.Errorf("GoogleID = %q", profile.GoogleID)
	}
	// Emails are normalized to lowercase.
	if profile.Email != "ada@example.com" {
		t.Errorf("Email = %q", profile.Email)
	}
	if profile.Name != "Ada Lovelace" {
		t.Errorf("Name = %q", profile.Name)
	}
	if profile.Picture != "https://lh3.example.com/photo.jpg" {
		t.Errorf("Picture = %q", profile.Picture)
	}
}

func TestParseGoogleIDToken_Unverified(t *testing.T) {
	t.Parallel()

	token := fakeIDToken(t, map[string]any{
		"sub":            "google-uid-42",
		"email":          "ada@example.com",
		"email_verified": false,
	})

	_, verified, err := parseGoogleIDToken(token)
	if err != nil {
		t.Fatalf("parseGoogleIDToken failed: %v", err)
	}
	if verified {
		t.Error("email should not be verified")
	}
}

func TestParseGoogleIDToken_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "plain-string"},
		{"two parts", "abc.def"},
		{"bad base64 payload", "head.!!!.sig"},
		{"payload not json", "head." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".sig"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := parseGoogleIDToken(tt.token); !errors.Is(err, ErrInvalidIDToken) {
				t.Errorf("expected ErrInvalidIDToken, got %v", err)
			}
		})
	}
}

func TestParseGoogleIDToken_MissingIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims map[string]any
	}{
		{"no sub", map[string]any{"email": "ada@example.com", "email_verified": true}},
		{"no email", map[string]any{"sub": "google-uid-42", "email_verified": true}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token := fakeIDToken(t, tt.claims)
			if _, _, err := parseGoogleIDToken(token); !errors.Is(err, ErrInvalidIDToken) {
				t.Errorf("expected ErrInvalidIDToken, got %v", err)
			}
		})
	}
}

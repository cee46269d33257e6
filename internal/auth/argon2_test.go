package auth

import (
	"strings"
	"testing"
)

func TestHashKeyFormat(t *testing.T) {
	t.Parallel()

	key := "pk_live_abc123_secretsecretsecretsecret1234"

	hash, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("hash not in PHC format: %s", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("hash has %d parts, want 6", len(parts))
	}
	if parts[2] != "v=19" {
		t.Errorf("version = %s, want v=19", parts[2])
	}
	if parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("params = %s, want m=65536,t=3,p=4", parts[3])
	}
}

func TestHashKeySaltsDiffer(t *testing.T) {
	t.Parallel()

	key := "pk_live_abc123_secretsecretsecretsecret1234"

	hash1, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}
	hash2, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	if hash1 == hash2 {
		t.Error("same key should hash differently under fresh salts")
	}

	match1, _ := VerifyKey(key, hash1)
	match2, _ := VerifyKey(key, hash2)
	if !match1 || !match2 {
		t.Error("both hashes should verify the original key")
	}
}

func TestVerifyKey(t *testing.T) {
	t.Parallel()

	key := "pk_live_abc123_secretsecretsecretsecret1234"
	wrong := "pk_live_abc123_wrongwrongwrongwrongwrong1234"

	hash, err := HashKey(key)
	if err != nil {
		t.Fatalf("HashKey failed: %v", err)
	}

	match, err := VerifyKey(key, hash)
	if err != nil {
		t.Fatalf("VerifyKey failed: %v", err)
	}
	if !match {
		t.Error("correct key should match")
	}

	match, err = VerifyKey(wrong, hash)
	if err != nil {
		t.Fatalf("VerifyKey returned error for a mere mismatch: %v", err)
	}
	if match {
		t.Error("wrong key should not match")
	}
}

func TestVerifyKeyMalformedHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"not a hash", "not-a-hash", ErrInvalidHash},
		{"wrong algorithm", "$bcrypt$v=19$m=65536,t=3,p=4$salt$hash", ErrInvalidHash},
		{"missing parts", "$argon2id$v=19$m=65536", ErrInvalidHash},
		{"truncated", "$argon2id$v=19", ErrInvalidHash},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := VerifyKey("anything", tt.hash); err != tt.wantErr {
				t.Errorf("VerifyKey error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyKeyWrongVersion(t *testing.T) {
	t.Parallel()

	// v=18 where the library speaks v=19.
	staleHash := "$argon2id$v=18$m=65536,t=3,p=4$c29tZXNhbHRoZXJl$c29tZWhhc2hoZXJl"

	match, err := VerifyKey("anything", staleHash)
	if err != ErrIncompatibleVersion {
		t.Errorf("error = %v, want ErrIncompatibleVersion", err)
	}
	if match {
		t.Error("incompatible version must not match")
	}
}

func TestQuickHash(t *testing.T) {
	t.Parallel()

	key := "pk_live_abc123_secretsecretsecretsecret1234"

	if QuickHash(key) != QuickHash(key) {
		t.Error("QuickHash must be deterministic")
	}
	if QuickHash("input-one") == QuickHash("input-two") {
		t.Error("distinct inputs should produce distinct hashes")
	}

	for _, input := range []string{key, "abc", "", strings.Repeat("x", 1000)} {
		if got := len(QuickHash(input)); got != 32 {
			t.Errorf("QuickHash(%.10q...) length = %d, want 32", input, got)
		}
	}
}

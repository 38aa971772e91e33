package token

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	secret, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	decoded, err := base64.RawURLEncoding.DecodeString(secret)
	if err != nil {
		t.Fatalf("Generate() returned invalid base64: %v", err)
	}
	if len(decoded) != DefaultLength {
		t.Errorf("decoded length = %d, want %d", len(decoded), DefaultLength)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		secret, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[secret] {
			t.Fatalf("duplicate secret %s", secret)
		}
		seen[secret] = true
	}
}

func TestGenerateWithLength(t *testing.T) {
	for _, n := range []int{16, 32, 64} {
		secret, err := GenerateWithLength(n)
		if err != nil {
			t.Fatalf("GenerateWithLength(%d) error = %v", n, err)
		}
		if want := base64.RawURLEncoding.EncodedLen(n); len(secret) != want {
			t.Errorf("GenerateWithLength(%d) len = %d, want %d", n, len(secret), want)
		}
	}

	if _, err := GenerateWithLength(0); err == nil {
		t.Error("GenerateWithLength(0) should fail")
	}
}

func TestGenerateAdminKey(t *testing.T) {
	key, err := GenerateAdminKey()
	if err != nil {
		t.Fatalf("GenerateAdminKey() error = %v", err)
	}
	if !strings.HasPrefix(key, AdminKeyPrefix) {
		t.Errorf("key %q missing prefix", key)
	}
	if len(key) != 48 {
		t.Errorf("len = %d, want 48", len(key))
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("gmak_one")
	if len(a) != 12 {
		t.Fatalf("len = %d, want 12", len(a))
	}
	if a != Fingerprint("gmak_one") {
		t.Error("Fingerprint is not deterministic")
	}
	if a == Fingerprint("gmak_two") {
		t.Error("different secrets share a fingerprint")
	}
}

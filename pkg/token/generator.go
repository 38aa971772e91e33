package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultLength is the default secret length in bytes.
const DefaultLength = 32

// AdminKeyPrefix marks admin keys so they are recognisable in config and
// secret scanners.
const AdminKeyPrefix = "gmak_"

// Generate generates a cryptographically secure random secret, Base64
// RawURL encoded.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength generates a secret from length random bytes.
func GenerateWithLength(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAdminKey returns a new admin key.
func GenerateAdminKey() (string, error) {
	body, err := Generate()
	if err != nil {
		return "", fmt.Errorf("generate admin key: %w", err)
	}
	return AdminKeyPrefix + body, nil
}

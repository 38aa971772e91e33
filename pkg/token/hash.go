package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the first 12 hex characters of the SHA-256 of a
// secret. It identifies a key in logs without revealing it.
func Fingerprint(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])[:12]
}

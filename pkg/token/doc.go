// Package token generates operator secrets such as admin keys.
//
// Key format:
//
//   - Prefix: gmak_ (5 characters)
//   - Body: 43 characters of Base64 RawURL encoded random bytes
//
// Keys are never stored. The server keeps an argon2id hash and logs only
// the short Fingerprint of a key.
package token

package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/time/rate"

	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// Argon2id parameters used for admin key hashes.
const (
	argonTime    = 2
	argonMemory  = 16384
	argonThreads = 2
	argonKeyLen  = 32
)

// AdminAuth verifies the operator key that guards administrative
// endpoints (clock control, backups).
type AdminAuth struct {
	hash string
}

// NewAdminAuth creates an AdminAuth for an argon2id hash in the form
// $argon2id$v=19$m=16384,t=2,p=2$<salt>$<hash>. An empty hash disables
// every admin call.
func NewAdminAuth(hash string) *AdminAuth {
	return &AdminAuth{hash: hash}
}

// Enabled reports whether an admin key is configured.
func (a *AdminAuth) Enabled() bool {
	return a != nil && a.hash != ""
}

// Verify checks key against the configured hash.
func (a *AdminAuth) Verify(key string) error {
	if !a.Enabled() {
		return domain.ErrPermissionDenied.WithDetails("admin access is not configured")
	}
	if key == "" {
		return domain.ErrAdminKeyInvalid.WithDetails("admin key not provided")
	}
	if !verifyArgon2Hash(key, a.hash) {
		return domain.ErrAdminKeyInvalid
	}
	return nil
}

// HashAdminKey derives the argon2id hash string for key with a random salt.
func HashAdminKey(key string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := argon2.IDKey([]byte(key), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum)), nil
}

// verifyArgon2Hash verifies a secret against an Argon2id hash.
func verifyArgon2Hash(secret, hash string) bool {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}

	computed := argon2.IDKey([]byte(secret), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// RateLimiterRegistry hands out one token bucket per client key.
type RateLimiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewRateLimiterRegistry creates a registry allowing perSecond requests
// per second with the given burst.
func NewRateLimiterRegistry(perSecond float64, burst int) *RateLimiterRegistry {
	if burst <= 0 {
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow consumes a token for key.
func (r *RateLimiterRegistry) Allow(key string) bool {
	return r.get(key).Allow()
}

func (r *RateLimiterRegistry) get(key string) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.limiters[key]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = limiter
	return limiter
}

// Len returns the number of tracked keys.
func (r *RateLimiterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.limiters)
}

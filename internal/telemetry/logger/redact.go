package logger

import (
	"log/slog"
	"strings"
)

// adminKeyPrefix marks plaintext admin keys, which are partially masked
// wherever they appear.
const adminKeyPrefix = "gmak_"

// Key fragments whose values are replaced outright. Ledger fields such as
// token, owner or amount stay visible.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"admin_key",
	"api_key",
	"credential",
	"authorization",
	"bearer",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if strings.HasPrefix(v, adminKeyPrefix) {
			return slog.String(a.Key, RedactString(v))
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks an admin key to its prefix plus the first and last
// three characters. Other values are returned unchanged.
func RedactString(value string) string {
	if !strings.HasPrefix(value, adminKeyPrefix) {
		return value
	}
	body := value[len(adminKeyPrefix):]
	if len(body) <= 6 {
		return adminKeyPrefix + "***"
	}
	return adminKeyPrefix + body[:3] + "..." + body[len(body)-3:]
}

// IsSensitiveKey reports whether an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

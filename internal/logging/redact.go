package logging

import (
	"strings"

	"go.uber.org/zap"
)

const redacted = "[REDACTED]"

// Sensitive reports whether a field key names a credential.
func Sensitive(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, s := range []string{"password", "token", "secret", "authorization", "api_key", "apikey", "cookie"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// String is zap.String with credential keys and JWT-shaped values
// replaced by a placeholder.
func String(key, val string) zap.Field {
	if Sensitive(key) || looksLikeJWT(val) {
		return zap.String(key, redacted)
	}
	return zap.String(key, val)
}

func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

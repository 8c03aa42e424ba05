package messaging

import "strings"

// CanonicalPhone reduces a phone-number-like value to a digit-only string.
// Idempotent; an empty or non-numeric input canonicalizes to "", which
// callers must treat as missing.
func CanonicalPhone(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

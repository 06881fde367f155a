package email

import (
	"strings"
	"unicode"
)

// DisplayName derives a human-readable invitee label from an email address
// when the roster row did not carry a name. "ada.lovelace@example.org"
// becomes "Ada Lovelace".
func DisplayName(email string) string {
	localPart := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		localPart = email[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Voter"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

// Normalize lowercases and trims an address for deduplication.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Valid is a cheap structural check; delivery remains the caller's problem.
func Valid(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

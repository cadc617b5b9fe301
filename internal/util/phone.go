package util

import "strings"

// NormalizePhone canonicalizes a phone number to digits only with the
// country code prefixed. Accepts inputs like "+57 300-123-4567",
// "0300 1234567" or a bare local number.
func NormalizePhone(raw, defaultCountryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	// Local numbers sometimes carry a trunk prefix.
	trimmed := strings.TrimLeft(digits, "0")
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, defaultCountryCode) && len(trimmed) > len(defaultCountryCode)+6 {
		return trimmed
	}
	return defaultCountryCode + trimmed
}

// MaskPhone hides the middle of a phone number for logging. The country
// code and the last two digits stay visible.
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return "****"
	}
	return phone[:4] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-2:]
}

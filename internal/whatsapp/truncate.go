package whatsapp

import (
	"context"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/audit"
)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// runePrefix returns a prefix of at most max characters, cutting on rune
// boundaries so a multi-byte character is never left half-formed.
func runePrefix(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// clampHard enforces a hard limit: over-long text is cut to
// hard - len(marker) characters and the marker appended, and the decision
// is logged with the original length. logOriginal controls whether the
// original text itself is included; message bodies never are, short
// labels like button titles may be.
func clampHard(field, value string, hard int, logOriginal bool) string {
	length := runeLen(value)
	if length <= hard {
		return value
	}

	keep := hard - runeLen(TruncationMarker)
	truncated := runePrefix(value, keep) + TruncationMarker

	event := log.Warn().
		Str("field", field).
		Int("original_length", length).
		Int("hard_limit", hard)
	if logOriginal {
		event = event.Str("original", value)
	}
	event.Msg("text exceeded hard limit, truncated")

	audit.Log(context.Background(), audit.Event{
		Type: audit.EventTruncation,
		Details: map[string]interface{}{
			"field":           field,
			"original_length": length,
			"hard_limit":      hard,
		},
	})

	return truncated
}

// warnSoft logs when a readability target is exceeded; the text proceeds
// unchanged.
func warnSoft(field, value string, soft int) {
	if length := runeLen(value); length > soft {
		log.Warn().
			Str("field", field).
			Int("length", length).
			Int("soft_limit", soft).
			Msg("text exceeds soft limit")
	}
}

package audit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/util"
)

type EventType string

const (
	EventSessionCreate    EventType = "session_create"
	EventSessionReset     EventType = "session_reset"
	EventSessionClear     EventType = "session_clear"
	EventTimeoutReset     EventType = "timeout_reset"
	EventDuplicateInbound EventType = "duplicate_inbound"
	EventTruncation       EventType = "payload_truncation"
	EventListOverflow     EventType = "list_overflow"
	EventSendSuccess      EventType = "send_success"
	EventSendFailure      EventType = "send_failure"
	EventRateLimitExceed  EventType = "rate_limit_exceeded"
	EventUserLinked       EventType = "user_linked"
)

// Event is one auditable decision. Phone numbers are masked before
// logging; message bodies are never logged verbatim, only lengths and
// limits, so a decision can be reconstructed without leaking content.
type Event struct {
	Type    EventType
	Phone   string
	Details map[string]interface{}
}

func Log(ctx context.Context, event Event) {
	logger := log.With().
		Str("audit", "engine").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Logger()

	if event.Phone != "" {
		logger = logger.With().Str("phone", util.MaskPhone(event.Phone)).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("engine audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}

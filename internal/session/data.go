package session

import (
	"context"

	"github.com/vendalocal/whatsapp-assistant/internal/model"
)

// Temp data carries a multi-step form's in-progress answers and is cleared
// whenever a new flow starts. Context data survives flow changes. Each
// mutation is an atomic read-modify-write stamping LastActivityAt; pure
// reads stamp nothing.

func (m *Manager) SetTemp(ctx context.Context, session *model.ConversationSession, key string, value any) error {
	if session.TempData == nil {
		session.TempData = model.DataMap{}
	}
	session.TempData[key] = value
	return m.stampAndSave(ctx, session)
}

func (m *Manager) GetTemp(session *model.ConversationSession, key string) (any, bool) {
	value, ok := session.TempData[key]
	return value, ok
}

func (m *Manager) GetTempString(session *model.ConversationSession, key string) string {
	return asString(session.TempData[key])
}

func (m *Manager) GetTempInt(session *model.ConversationSession, key string) int {
	return asInt(session.TempData[key])
}

func (m *Manager) RemoveTemp(ctx context.Context, session *model.ConversationSession, key string) error {
	delete(session.TempData, key)
	return m.stampAndSave(ctx, session)
}

func (m *Manager) MergeTemp(ctx context.Context, session *model.ConversationSession, values model.DataMap) error {
	if session.TempData == nil {
		session.TempData = model.DataMap{}
	}
	for k, v := range values {
		session.TempData[k] = v
	}
	return m.stampAndSave(ctx, session)
}

// IncrementTemp adds delta to an integer temp value, treating a missing or
// non-numeric value as zero, and returns the new value.
func (m *Manager) IncrementTemp(ctx context.Context, session *model.ConversationSession, key string, delta int) (int, error) {
	if session.TempData == nil {
		session.TempData = model.DataMap{}
	}
	value := asInt(session.TempData[key]) + delta
	session.TempData[key] = value
	return value, m.stampAndSave(ctx, session)
}

// AppendTemp appends value to a temp slice, creating the slice when the key
// is absent or holds a non-slice value.
func (m *Manager) AppendTemp(ctx context.Context, session *model.ConversationSession, key string, value any) error {
	if session.TempData == nil {
		session.TempData = model.DataMap{}
	}
	existing, _ := session.TempData[key].([]any)
	session.TempData[key] = append(existing, value)
	return m.stampAndSave(ctx, session)
}

func (m *Manager) SetContext(ctx context.Context, session *model.ConversationSession, key string, value any) error {
	if session.ContextData == nil {
		session.ContextData = model.DataMap{}
	}
	session.ContextData[key] = value
	return m.stampAndSave(ctx, session)
}

func (m *Manager) GetContext(session *model.ConversationSession, key string) (any, bool) {
	value, ok := session.ContextData[key]
	return value, ok
}

func (m *Manager) GetContextString(session *model.ConversationSession, key string) string {
	return asString(session.ContextData[key])
}

func (m *Manager) RemoveContext(ctx context.Context, session *model.ConversationSession, key string) error {
	delete(session.ContextData, key)
	return m.stampAndSave(ctx, session)
}

func (m *Manager) MergeContext(ctx context.Context, session *model.ConversationSession, values model.DataMap) error {
	if session.ContextData == nil {
		session.ContextData = model.DataMap{}
	}
	for k, v := range values {
		session.ContextData[k] = v
	}
	return m.stampAndSave(ctx, session)
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

// asInt tolerates the numeric types a JSONB round trip produces.
func asInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

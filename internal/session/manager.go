package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/audit"
	"github.com/vendalocal/whatsapp-assistant/internal/config"
	"github.com/vendalocal/whatsapp-assistant/internal/model"
	"github.com/vendalocal/whatsapp-assistant/internal/repository"
	"github.com/vendalocal/whatsapp-assistant/internal/util"
)

// Locker serializes work per phone. Two near-simultaneous deliveries for
// the same phone must not race their session writes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), acquired bool)
}

// Manager is the single authority for where a user stands in the
// conversation. All mutations are read-modify-write against the latest
// stored session and stamp LastActivityAt; pure reads do not.
type Manager struct {
	sessions    repository.SessionRepository
	users       repository.UserRepository
	locker      Locker
	catalog     *config.Catalog
	countryCode string
	now         func() time.Time
}

func NewManager(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	locker Locker,
	catalog *config.Catalog,
	countryCode string,
) *Manager {
	return &Manager{
		sessions:    sessions,
		users:       users,
		locker:      locker,
		catalog:     catalog,
		countryCode: countryCode,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithPhoneLock runs fn while holding the per-phone lock. When the lock
// cannot be acquired fn still runs: session writes are full
// read-modify-write cycles, so the worst case is last-writer-wins.
func (m *Manager) WithPhoneLock(ctx context.Context, phone string, fn func(ctx context.Context) error) error {
	release, _ := m.locker.Acquire(ctx, util.NormalizePhone(phone, m.countryCode))
	defer release()
	return fn(ctx)
}

// GetOrCreate returns the session for phone, creating one at
// (main_menu, idle) on first contact. A matching registered user is linked
// best-effort; failing to find one is not an error.
func (m *Manager) GetOrCreate(ctx context.Context, phone string) (*model.ConversationSession, error) {
	normalized := util.NormalizePhone(phone, m.countryCode)
	if normalized == "" {
		return nil, fmt.Errorf("invalid phone %q", phone)
	}

	session, err := m.sessions.FindByPhone(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	if session == nil {
		session, err = m.sessions.Create(ctx, model.CreateSessionParams{
			Phone:    normalized,
			Language: m.catalog.DefaultLanguage(),
		})
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		audit.Log(ctx, audit.Event{
			Type:  audit.EventSessionCreate,
			Phone: normalized,
		})
	}

	if session.UserID == nil {
		m.linkUser(ctx, session)
	}

	return session, nil
}

// GetActiveOrReset is the standard entry point for an inbound message:
// get-or-create, then reset a timed-out non-idle session to the main menu,
// or refresh the activity timestamp otherwise. The bool reports whether a
// timeout reset happened, so callers can tell the user why the
// conversation restarted.
func (m *Manager) GetActiveOrReset(ctx context.Context, phone string) (*model.ConversationSession, bool, error) {
	session, err := m.GetOrCreate(ctx, phone)
	if err != nil {
		return nil, false, err
	}

	if m.HasTimedOut(session) && !m.IsIdle(session) {
		idleFor := m.now().Sub(session.LastActivityAt)
		previousFlow := session.CurrentFlow
		previousStep := session.CurrentStep

		if err := m.ResetToMainMenu(ctx, session); err != nil {
			return nil, false, err
		}

		audit.Log(ctx, audit.Event{
			Type:  audit.EventTimeoutReset,
			Phone: session.Phone,
			Details: map[string]interface{}{
				"flow":         string(previousFlow),
				"step":         string(previousStep),
				"idle_seconds": int64(idleFor.Seconds()),
			},
		})
		return session, true, nil
	}

	session.LastActivityAt = m.now()
	if err := m.sessions.Save(ctx, session); err != nil {
		return nil, false, fmt.Errorf("save session: %w", err)
	}
	return session, false, nil
}

// SetFlowStep moves the session to (flow, step). Step membership is not
// validated against a successor relation; flow logic owns that.
func (m *Manager) SetFlowStep(ctx context.Context, session *model.ConversationSession, flow model.Flow, step model.Step) error {
	session.CurrentFlow = flow
	session.CurrentStep = step
	return m.stampAndSave(ctx, session)
}

// StartFlow enters a flow at its declared initial step. Temp data is
// replaced wholesale: flows never inherit the previous flow's temp data.
func (m *Manager) StartFlow(ctx context.Context, session *model.ConversationSession, flow model.Flow, initialData model.DataMap) error {
	session.CurrentFlow = flow
	session.CurrentStep = flow.InitialStep()
	if initialData == nil {
		initialData = model.DataMap{}
	}
	session.TempData = initialData
	return m.stampAndSave(ctx, session)
}

// SavePreviousStep stashes the current (flow, step) into the single back
// slot. The slot holds one level only; a second save overwrites it.
func (m *Manager) SavePreviousStep(ctx context.Context, session *model.ConversationSession) error {
	flow := session.CurrentFlow
	step := session.CurrentStep
	session.PreviousFlow = &flow
	session.PreviousStep = &step
	return m.stampAndSave(ctx, session)
}

// GoBack restores the stashed (flow, step) and consumes the slot. With
// nothing stashed it falls back to the main menu, so going back twice in a
// row lands there.
func (m *Manager) GoBack(ctx context.Context, session *model.ConversationSession) error {
	if session.PreviousFlow == nil || session.PreviousStep == nil {
		return m.ResetToMainMenu(ctx, session)
	}

	session.CurrentFlow = *session.PreviousFlow
	session.CurrentStep = *session.PreviousStep
	session.PreviousFlow = nil
	session.PreviousStep = nil
	return m.stampAndSave(ctx, session)
}

// ResetToMainMenu returns the session to (main_menu, idle), clearing flow,
// step, back slot and temp data. Context data survives. Idempotent.
func (m *Manager) ResetToMainMenu(ctx context.Context, session *model.ConversationSession) error {
	session.CurrentFlow = model.FlowMainMenu
	session.CurrentStep = model.StepIdle
	session.PreviousFlow = nil
	session.PreviousStep = nil
	session.TempData = model.DataMap{}
	return m.stampAndSave(ctx, session)
}

// ClearSession additionally wipes context data and unlinks the user
// without deleting the row. Used for re-registration. Idempotent.
func (m *Manager) ClearSession(ctx context.Context, session *model.ConversationSession) error {
	session.UserID = nil
	session.ContextData = model.DataMap{}
	if err := m.ResetToMainMenu(ctx, session); err != nil {
		return err
	}
	audit.Log(ctx, audit.Event{
		Type:  audit.EventSessionClear,
		Phone: session.Phone,
	})
	return nil
}

// HasTimedOut reports whether the session sat idle past its flow's
// timeout, with a per-flow catalog override falling back to the default.
func (m *Manager) HasTimedOut(session *model.ConversationSession) bool {
	timeout := m.catalog.FlowTimeout(string(session.CurrentFlow))
	return m.now().Sub(session.LastActivityAt) >= timeout
}

// IsIdle reports whether the session rests on one of the idle steps.
// Idle sessions are exempt from timeout resets: they are already at rest.
func (m *Manager) IsIdle(session *model.ConversationSession) bool {
	return session.CurrentStep.IsIdle()
}

// IsDuplicateMessage reports whether the incoming message id matches the
// last recorded one. Best-effort: a single slot, not an idempotency ledger.
func (m *Manager) IsDuplicateMessage(session *model.ConversationSession, messageID string) bool {
	return messageID != "" &&
		session.LastMessageID != nil &&
		*session.LastMessageID == messageID
}

// RecordInbound remembers the inbound message identity for duplicate
// suppression of redelivered webhooks.
func (m *Manager) RecordInbound(ctx context.Context, session *model.ConversationSession, messageID string, messageType model.MessageType) error {
	session.LastMessageID = &messageID
	typeStr := string(messageType)
	session.LastMessageType = &typeStr
	return m.stampAndSave(ctx, session)
}

func (m *Manager) stampAndSave(ctx context.Context, session *model.ConversationSession) error {
	session.LastActivityAt = m.now()
	if err := m.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (m *Manager) linkUser(ctx context.Context, session *model.ConversationSession) {
	user, err := m.users.FindByPhone(ctx, session.Phone)
	if err != nil {
		log.Warn().Err(err).Str("phone", util.MaskPhone(session.Phone)).Msg("user linkage lookup failed")
		return
	}
	if user == nil {
		return
	}

	session.UserID = &user.ID
	if user.Language != "" {
		session.Language = user.Language
	}
	if err := m.sessions.Save(ctx, session); err != nil {
		log.Warn().Err(err).Str("phone", util.MaskPhone(session.Phone)).Msg("user linkage save failed")
		return
	}
	audit.Log(ctx, audit.Event{
		Type:  audit.EventUserLinked,
		Phone: session.Phone,
		Details: map[string]interface{}{
			"user_id": user.ID,
		},
	})
}

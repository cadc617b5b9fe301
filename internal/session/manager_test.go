package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendalocal/whatsapp-assistant/internal/config"
	"github.com/vendalocal/whatsapp-assistant/internal/model"
	"github.com/vendalocal/whatsapp-assistant/internal/repository"

	"github.com/jmoiron/sqlx"
)

type mockSessionRepo struct {
	sessions map[string]*model.ConversationSession
	creates  int
	saves    int
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: map[string]*model.ConversationSession{}}
}

func (m *mockSessionRepo) FindByPhone(ctx context.Context, phone string) (*model.ConversationSession, error) {
	session, ok := m.sessions[phone]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.ConversationSession, error) {
	m.creates++
	now := time.Now()
	session := &model.ConversationSession{
		ID:             params.Phone,
		Phone:          params.Phone,
		UserID:         params.UserID,
		CurrentFlow:    model.FlowMainMenu,
		CurrentStep:    model.StepIdle,
		TempData:       model.DataMap{},
		ContextData:    model.DataMap{},
		Language:       params.Language,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.sessions[params.Phone] = session
	copied := *session
	return &copied, nil
}

func (m *mockSessionRepo) Save(ctx context.Context, session *model.ConversationSession) error {
	m.saves++
	copied := *session
	m.sessions[session.Phone] = &copied
	return nil
}

func (m *mockSessionRepo) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	for phone, session := range m.sessions {
		if session.LastActivityAt.Before(cutoff) {
			delete(m.sessions, phone)
			count++
		}
	}
	return count, nil
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockUserRepo struct {
	users map[string]*model.User
}

func (m *mockUserRepo) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	return m.users[phone], nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

type noopLocker struct{}

func (noopLocker) Acquire(ctx context.Context, key string) (func(), bool) {
	return func() {}, true
}

func newTestManager(t *testing.T) (*Manager, *mockSessionRepo, *mockUserRepo) {
	t.Helper()
	sessions := newMockSessionRepo()
	users := &mockUserRepo{users: map[string]*model.User{}}
	catalog := config.DefaultCatalog("es").
		WithFlowTimeout("agreement_creation", 30*time.Minute)
	manager := NewManager(sessions, users, noopLocker{}, catalog, "57")
	return manager, sessions, users
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session at main menu idle", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		session, err := manager.GetOrCreate(ctx, "+57 300 123 4567")
		require.NoError(t, err)
		assert.Equal(t, "573001234567", session.Phone)
		assert.Equal(t, model.FlowMainMenu, session.CurrentFlow)
		assert.Equal(t, model.StepIdle, session.CurrentStep)
		assert.Equal(t, "es", session.Language)
	})

	t.Run("is idempotent", func(t *testing.T) {
		manager, sessions, _ := newTestManager(t)

		first, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)
		second, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)

		assert.Equal(t, 1, sessions.creates)
		assert.Equal(t, first.CurrentFlow, second.CurrentFlow)
		assert.Equal(t, first.CurrentStep, second.CurrentStep)
		assert.Equal(t, first.TempData, second.TempData)
		assert.Equal(t, first.ContextData, second.ContextData)
	})

	t.Run("rejects unusable phone", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		_, err := manager.GetOrCreate(ctx, "+-()")
		assert.Error(t, err)
	})

	t.Run("links matching registered user best effort", func(t *testing.T) {
		manager, _, users := newTestManager(t)
		users.users["573001234567"] = &model.User{ID: "u-1", Phone: "573001234567", Language: "en"}

		session, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)
		require.NotNil(t, session.UserID)
		assert.Equal(t, "u-1", *session.UserID)
		assert.Equal(t, "en", session.Language)
	})
}

func TestGetActiveOrReset(t *testing.T) {
	ctx := context.Background()

	t.Run("resets a timed-out non-idle session", func(t *testing.T) {
		manager, sessions, _ := newTestManager(t)

		session, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)
		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowAgreementCreation, model.StepCollectingAmount))
		require.NoError(t, manager.SetTemp(ctx, session, "amount", 5000))

		// Jump the clock past the agreement flow's 30 minute timeout.
		manager.WithClock(func() time.Time { return time.Now().Add(31 * time.Minute) })

		reset, wasReset, err := manager.GetActiveOrReset(ctx, "573001234567")
		require.NoError(t, err)
		assert.True(t, wasReset)
		assert.Equal(t, model.FlowMainMenu, reset.CurrentFlow)
		assert.Equal(t, model.StepIdle, reset.CurrentStep)
		assert.Empty(t, reset.TempData)

		stored := sessions.sessions["573001234567"]
		assert.Equal(t, model.FlowMainMenu, stored.CurrentFlow)
	})

	t.Run("idle sessions are exempt from resets", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		_, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)

		manager.WithClock(func() time.Time { return time.Now().Add(24 * time.Hour) })

		session, wasReset, err := manager.GetActiveOrReset(ctx, "573001234567")
		require.NoError(t, err)
		assert.False(t, wasReset)
		assert.Equal(t, model.StepIdle, session.CurrentStep)
	})

	t.Run("refreshes activity for live sessions", func(t *testing.T) {
		manager, _, _ := newTestManager(t)

		session, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)
		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowProductSearch, model.StepEnterQuery))

		later := time.Now().Add(2 * time.Minute)
		manager.WithClock(func() time.Time { return later })

		refreshed, wasReset, err := manager.GetActiveOrReset(ctx, "573001234567")
		require.NoError(t, err)
		assert.False(t, wasReset)
		assert.Equal(t, model.FlowProductSearch, refreshed.CurrentFlow)
		assert.Equal(t, later, refreshed.LastActivityAt)
	})
}

func TestStartFlow(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)

	session, err := manager.GetOrCreate(ctx, "573001234567")
	require.NoError(t, err)

	require.NoError(t, manager.SetTemp(ctx, session, "leftover", "stale"))
	require.NoError(t, manager.SetContext(ctx, session, "filters", "nearby"))

	require.NoError(t, manager.StartFlow(ctx, session, model.FlowRegistration, model.DataMap{"referrer": "ad"}))

	assert.Equal(t, model.FlowRegistration, session.CurrentFlow)
	assert.Equal(t, model.StepAskName, session.CurrentStep)
	assert.Equal(t, model.DataMap{"referrer": "ad"}, session.TempData)
	// Context data outlives flow changes.
	assert.Equal(t, "nearby", manager.GetContextString(session, "filters"))

	require.NoError(t, manager.StartFlow(ctx, session, model.FlowSettings, nil))
	assert.Empty(t, session.TempData)
}

func TestBackNavigation(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the stashed step", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		session, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)

		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowOfferBrowsing, model.StepSelectCategory))
		require.NoError(t, manager.SavePreviousStep(ctx, session))
		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowOfferBrowsing, model.StepSelectShop))

		require.NoError(t, manager.GoBack(ctx, session))
		assert.Equal(t, model.FlowOfferBrowsing, session.CurrentFlow)
		assert.Equal(t, model.StepSelectCategory, session.CurrentStep)
	})

	t.Run("second goBack lands on main menu", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		session, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)

		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowOfferBrowsing, model.StepSelectCategory))
		require.NoError(t, manager.SavePreviousStep(ctx, session))
		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowOfferBrowsing, model.StepSelectShop))

		require.NoError(t, manager.GoBack(ctx, session))
		require.NoError(t, manager.GoBack(ctx, session))
		assert.Equal(t, model.FlowMainMenu, session.CurrentFlow)
		assert.Equal(t, model.StepIdle, session.CurrentStep)
	})

	t.Run("goBack without a stash resets to main menu", func(t *testing.T) {
		manager, _, _ := newTestManager(t)
		session, err := manager.GetOrCreate(ctx, "573001234567")
		require.NoError(t, err)
		require.NoError(t, manager.SetFlowStep(ctx, session, model.FlowSettings, model.StepChangeLanguage))

		require.NoError(t, manager.GoBack(ctx, session))
		assert.Equal(t, model.FlowMainMenu, session.CurrentFlow)
		assert.Equal(t, model.StepIdle, session.CurrentStep)
	})
}

func TestClearSession(t *testing.T) {
	ctx := context.Background()
	manager, _, users := newTestManager(t)
	users.users["573001234567"] = &model.User{ID: "u-1", Phone: "573001234567"}

	session, err := manager.GetOrCreate(ctx, "573001234567")
	require.NoError(t, err)
	require.NotNil(t, session.UserID)
	require.NoError(t, manager.SetContext(ctx, session, "filters", "nearby"))

	require.NoError(t, manager.ClearSession(ctx, session))
	assert.Nil(t, session.UserID)
	assert.Empty(t, session.ContextData)
	assert.Equal(t, model.FlowMainMenu, session.CurrentFlow)

	// A second clear is a no-op, not an error.
	require.NoError(t, manager.ClearSession(ctx, session))
}

func TestTempData(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)
	session, err := manager.GetOrCreate(ctx, "573001234567")
	require.NoError(t, err)

	t.Run("set get remove", func(t *testing.T) {
		require.NoError(t, manager.SetTemp(ctx, session, "category", "food"))
		assert.Equal(t, "food", manager.GetTempString(session, "category"))

		_, ok := manager.GetTemp(session, "category")
		assert.True(t, ok)

		require.NoError(t, manager.RemoveTemp(ctx, session, "category"))
		_, ok = manager.GetTemp(session, "category")
		assert.False(t, ok)
	})

	t.Run("merge", func(t *testing.T) {
		require.NoError(t, manager.MergeTemp(ctx, session, model.DataMap{"a": 1, "b": "two"}))
		assert.Equal(t, 1, manager.GetTempInt(session, "a"))
		assert.Equal(t, "two", manager.GetTempString(session, "b"))
	})

	t.Run("increment", func(t *testing.T) {
		value, err := manager.IncrementTemp(ctx, session, "attempts", 1)
		require.NoError(t, err)
		assert.Equal(t, 1, value)

		value, err = manager.IncrementTemp(ctx, session, "attempts", 2)
		require.NoError(t, err)
		assert.Equal(t, 3, value)
	})

	t.Run("increment tolerates jsonb numbers", func(t *testing.T) {
		session.TempData["count"] = float64(4)
		value, err := manager.IncrementTemp(ctx, session, "count", 1)
		require.NoError(t, err)
		assert.Equal(t, 5, value)
	})

	t.Run("append", func(t *testing.T) {
		require.NoError(t, manager.AppendTemp(ctx, session, "cart", "item-1"))
		require.NoError(t, manager.AppendTemp(ctx, session, "cart", "item-2"))
		assert.Equal(t, []any{"item-1", "item-2"}, session.TempData["cart"])
	})
}

func TestDuplicateMessage(t *testing.T) {
	ctx := context.Background()
	manager, _, _ := newTestManager(t)
	session, err := manager.GetOrCreate(ctx, "573001234567")
	require.NoError(t, err)

	assert.False(t, manager.IsDuplicateMessage(session, "wamid.1"))

	require.NoError(t, manager.RecordInbound(ctx, session, "wamid.1", model.MessageTypeText))
	assert.True(t, manager.IsDuplicateMessage(session, "wamid.1"))
	assert.False(t, manager.IsDuplicateMessage(session, "wamid.2"))
	assert.False(t, manager.IsDuplicateMessage(session, ""))
}

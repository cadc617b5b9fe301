package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vendalocal/whatsapp-assistant/internal/model"
)

type SessionRepository interface {
	FindByPhone(ctx context.Context, phone string) (*model.ConversationSession, error)
	Create(ctx context.Context, params model.CreateSessionParams) (*model.ConversationSession, error)
	// Save writes the full row back. Callers must have loaded the latest
	// stored value first: every update is a read-modify-write, never a
	// blind overwrite of a stale copy.
	Save(ctx context.Context, session *model.ConversationSession) error
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) SessionRepository
}

// sessionDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type sessionDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type sessionRepo struct {
	db sessionDB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) WithTx(tx *sqlx.Tx) SessionRepository {
	return &sessionRepo{db: tx}
}

func (r *sessionRepo) FindByPhone(ctx context.Context, phone string) (*model.ConversationSession, error) {
	var session model.ConversationSession
	err := r.db.GetContext(ctx, &session, `
		SELECT * FROM conversation_sessions WHERE phone = $1
	`, phone)
	return HandleNotFound(&session, err)
}

func (r *sessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.ConversationSession, error) {
	var session model.ConversationSession
	err := r.db.GetContext(ctx, &session, `
		INSERT INTO conversation_sessions (phone, user_id, language)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE SET updated_at = NOW()
		RETURNING *
	`, params.Phone, params.UserID, params.Language)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Save(ctx context.Context, session *model.ConversationSession) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversation_sessions SET
			user_id = $2,
			current_flow = $3,
			current_step = $4,
			previous_flow = $5,
			previous_step = $6,
			temp_data = $7,
			context_data = $8,
			last_message_id = $9,
			last_message_type = $10,
			language = $11,
			last_activity_at = $12,
			updated_at = NOW()
		WHERE phone = $1
	`,
		session.Phone,
		session.UserID,
		session.CurrentFlow,
		session.CurrentStep,
		session.PreviousFlow,
		session.PreviousStep,
		session.TempData,
		session.ContextData,
		session.LastMessageID,
		session.LastMessageType,
		session.Language,
		session.LastActivityAt,
	)
	return err
}

func (r *sessionRepo) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM conversation_sessions
		WHERE last_activity_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DataMap is a JSONB-backed key-value bag.
type DataMap map[string]any

// Value implements driver.Valuer so DataMap can be written as JSONB.
func (m DataMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *DataMap) Scan(src any) error {
	if src == nil {
		*m = DataMap{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for DataMap: %T", src)
	}
	if len(data) == 0 {
		*m = DataMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// ConversationSession is the durable per-phone record of where a user
// stands in the conversation. Exactly one row exists per phone.
type ConversationSession struct {
	ID              string      `db:"id" json:"id"`
	Phone           string      `db:"phone" json:"phone"`
	UserID          *string     `db:"user_id" json:"userId,omitempty"`
	CurrentFlow     Flow        `db:"current_flow" json:"currentFlow"`
	CurrentStep     Step        `db:"current_step" json:"currentStep"`
	PreviousFlow    *Flow       `db:"previous_flow" json:"previousFlow,omitempty"`
	PreviousStep    *Step       `db:"previous_step" json:"previousStep,omitempty"`
	TempData        DataMap     `db:"temp_data" json:"tempData"`
	ContextData     DataMap     `db:"context_data" json:"contextData"`
	LastMessageID   *string     `db:"last_message_id" json:"-"`
	LastMessageType *string     `db:"last_message_type" json:"-"`
	Language        string      `db:"language" json:"language"`
	LastActivityAt  time.Time   `db:"last_activity_at" json:"lastActivityAt"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updatedAt"`
}

type CreateSessionParams struct {
	Phone    string
	UserID   *string
	Language string
}

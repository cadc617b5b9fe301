package model

import "time"

// User is a registered account. Sessions reference users weakly: a session
// pointing at a user never implies ownership of the account record.
type User struct {
	ID        string    `db:"id" json:"id"`
	Phone     string    `db:"phone" json:"phone"`
	Name      string    `db:"name" json:"name"`
	Language  string    `db:"language" json:"language"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

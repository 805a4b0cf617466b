package model

import "time"

// Session is an opaque bearer token bound to a user. A session is valid
// iff now < ExpiresAt; expired rows are deleted lazily on first validation.
// Sessions are never renewed in place — a fresh login issues a new token.
//
// The token itself is the primary key and is stored as issued. Hashing it
// at rest (HMAC) was considered and deliberately left out; see DESIGN.md.
type Session struct {
	Token        string    `gorm:"primaryKey;size:64" json:"-"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
	ExpiresAt    time.Time `gorm:"index;not null" json:"expires_at"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is issued by the authentication service; this service only reads it.
type Session struct {
	Token     uuid.UUID `db:"token"`
	UserID    int64     `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

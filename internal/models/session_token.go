package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionToken stores the SHA-256 hash of an opaque refresh token handed to a
// caller after successful authentication. The raw token is never persisted.
type SessionToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID int64     `gorm:"not null;index" json:"account_id"`
	TokenHash string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"default:false" json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

func (SessionToken) TableName() string {
	return "session_tokens"
}

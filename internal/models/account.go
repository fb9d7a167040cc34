package models

import (
	"strings"
	"time"
)

// Login kinds, derived from the shape of the login handle at creation.
const (
	LoginKindEmail = "email"
	LoginKindPhone = "phone"
)

// Account roles.
const (
	RolePassenger = "passenger"
	RoleDriver    = "driver"
	RoleAdmin     = "admin"
	RoleCS        = "cs"
)

// Account statuses. Only active accounts may authenticate.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
	StatusPending  = "pending"
)

// Account is the identity aggregate. The login handle is the credential
// identifier (email- or phone-shaped) and is unique across all accounts.
type Account struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LoginHandle       string     `gorm:"size:255;not null;uniqueIndex:idx_accounts_login_handle" json:"login_handle"`
	LoginKind         string     `gorm:"size:16;not null;default:'email'" json:"login_kind"`
	PasswordHash      string     `gorm:"type:text;not null" json:"-"`
	MFASecret         *string    `gorm:"type:text" json:"-"`
	Role              string     `gorm:"size:16;not null;default:'passenger'" json:"role"`
	Status            string     `gorm:"size:16;not null;default:'active'" json:"status"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:AccountID" json:"profile,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// DeriveLoginKind classifies a login handle: anything containing '@' is an
// email handle, everything else is treated as phone-shaped.
func DeriveLoginKind(handle string) string {
	if strings.Contains(handle, "@") {
		return LoginKindEmail
	}
	return LoginKindPhone
}

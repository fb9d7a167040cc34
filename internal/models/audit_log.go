package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions recorded by the account service.
const (
	AuditUserCreated  = "user_created"
	AuditLoginSuccess = "login_success"
	AuditLoginFailed  = "login_failed"
	AuditLogout       = "logout"
)

// AuditLog is one immutable entry in the append-only security ledger. Entries
// are written once inside the transaction of the operation they record and are
// never updated or deleted afterwards (account cascade-delete aside).
type AuditLog struct {
	ID             int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorAccountID int64          `gorm:"not null;index:idx_audit_logs_actor" json:"actor_account_id"`
	Action         string         `gorm:"size:64;not null" json:"action"`
	Target         *string        `gorm:"size:64" json:"target"`
	IP             *string        `gorm:"size:64" json:"ip"`
	UserAgent      *string        `gorm:"type:text" json:"user_agent"`
	Context        datatypes.JSON `gorm:"type:jsonb" json:"context"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_audit_logs_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

package services

import (
	"encoding/json"
	"fmt"

	"github.com/bosun-mobility/auth-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultAuditPageSize = 20
	maxAuditPageSize     = 100
)

// AuditMeta carries the optional provenance of an audit entry.
type AuditMeta struct {
	Target    string
	IP        string
	UserAgent string
	Context   map[string]interface{}
}

// AuditService is the append-only recorder of security events. It exposes no
// update or delete operations.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Append inserts one entry using tx so the entry commits or rolls back
// together with the account mutation it records. Committing is the caller's
// responsibility.
func (s *AuditService) Append(tx *gorm.DB, actorAccountID int64, action string, meta AuditMeta) error {
	entry := models.AuditLog{
		ActorAccountID: actorAccountID,
		Action:         action,
		Target:         optional(meta.Target),
		IP:             optional(meta.IP),
		UserAgent:      optional(meta.UserAgent),
	}

	if len(meta.Context) > 0 {
		b, err := json.Marshal(meta.Context)
		if err != nil {
			return fmt.Errorf("failed to encode audit context: %w", err)
		}
		entry.Context = datatypes.JSON(b)
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *AuditService) Recent(limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := s.db.
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// ByActor returns up to limit entries for one account, newest first.
func (s *AuditService) ByActor(accountID int64, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := s.db.
		Where("actor_account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultAuditPageSize
	}
	if limit > maxAuditPageSize {
		return maxAuditPageSize
	}
	return limit
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

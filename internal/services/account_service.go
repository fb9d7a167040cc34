package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bosun-mobility/auth-backend/internal/credential"
	"github.com/bosun-mobility/auth-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrValidation       = errors.New("login handle and password are required")
	ErrDuplicateAccount = errors.New("login handle already registered")
	ErrAccountNotFound  = errors.New("account not found")
)

// Rejection reasons for Authenticate. Callers should present both to users as
// the same generic failure so handles cannot be enumerated.
const (
	RejectUnknownAccount = "unknown_account"
	RejectBadCredentials = "bad_credentials"
)

// AuthRejectedError is the typed outcome of a failed authentication. It is a
// returned value, not a storage failure; the Reason is internal detail the
// caller may choose to generalize.
type AuthRejectedError struct {
	Reason string
}

func (e *AuthRejectedError) Error() string {
	return "authentication rejected: " + e.Reason
}

// AccountService is the only component that creates, authenticates, or
// mutates accounts. Every operation runs inside one storage transaction so
// the entity mutation and its audit entry commit together or not at all.
type AccountService struct {
	db    *gorm.DB
	audit *AuditService
}

func NewAccountService(db *gorm.DB, audit *AuditService) *AccountService {
	return &AccountService{db: db, audit: audit}
}

// CreateAccount registers a new account with an empty profile and one
// user_created audit entry, all in a single transaction. The login kind is
// derived from the handle shape. Duplicate handles are detected through the
// storage unique index, which also closes the race between concurrent
// registrations of the same handle.
func (s *AccountService) CreateAccount(loginHandle, password, role string) (*models.Account, error) {
	if loginHandle == "" || password == "" {
		return nil, ErrValidation
	}
	if role == "" {
		role = models.RolePassenger
	}

	hash, err := credential.Hash(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := models.Account{
		LoginHandle:       loginHandle,
		LoginKind:         models.DeriveLoginKind(loginHandle),
		PasswordHash:      hash,
		Role:              role,
		Status:            models.StatusActive,
		PasswordChangedAt: &now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		profile := models.Profile{
			AccountID:    account.ID,
			ExtraProfile: datatypes.JSONMap{},
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return s.audit.Append(tx, account.ID, models.AuditUserCreated, AuditMeta{})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

// FindByHandle looks up an account by its exact login handle. A missing
// account is (nil, nil), not an error.
func (s *AccountService) FindByHandle(loginHandle string) (*models.Account, error) {
	var account models.Account
	err := s.db.Preload("Profile").Where("login_handle = ?", loginHandle).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &account, nil
}

// FindByID looks up an account by its surrogate id. A missing account is
// (nil, nil).
func (s *AccountService) FindByID(id int64) (*models.Account, error) {
	var account models.Account
	err := s.db.Preload("Profile").First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	return &account, nil
}

// Authenticate verifies credentials for loginHandle. An unknown handle is
// rejected without any audit entry (there is no actor to attribute it to).
// A found account gets exactly one login_success or login_failed entry per
// attempt; a wrong password and a non-active status are deliberately merged
// into the same bad_credentials rejection.
func (s *AccountService) Authenticate(loginHandle, password, ip, userAgent string) (*models.Account, error) {
	account, err := s.FindByHandle(loginHandle)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, &AuthRejectedError{Reason: RejectUnknownAccount}
	}

	ok := credential.Verify(password, account.PasswordHash) && account.IsActive()

	action := models.AuditLoginFailed
	if ok {
		action = models.AuditLoginSuccess
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.audit.Append(tx, account.ID, action, AuditMeta{IP: ip, UserAgent: userAgent})
	})
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, &AuthRejectedError{Reason: RejectBadCredentials}
	}
	return account, nil
}

// Updatable profile fields, keyed by their wire names. Anything else in an
// update payload is ignored for forward compatibility.
var profileFields = map[string]struct{}{
	"full_name":    {},
	"phone":        {},
	"email":        {},
	"age":          {},
	"gender":       {},
	"display_name": {},
	"address":      {},
}

// UpdateProfile applies the recognized fields to the account's profile,
// creating the profile row if it is missing. Unknown field names are silently
// skipped. An unknown handle returns (nil, nil) with zero writes.
func (s *AccountService) UpdateProfile(loginHandle string, fields map[string]interface{}) (*models.Account, error) {
	account, err := s.FindByHandle(loginHandle)
	if err != nil || account == nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		profile, err := s.loadOrInitProfile(tx, account.ID)
		if err != nil {
			return err
		}
		for name, value := range fields {
			if _, ok := profileFields[name]; !ok {
				continue
			}
			applyProfileField(profile, name, value)
		}
		return tx.Save(profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.FindByHandle(loginHandle)
}

// SetProfileExtra sets one key in the open extra_profile mapping and writes
// the whole mapping back in one transaction.
func (s *AccountService) SetProfileExtra(loginHandle, key string, value interface{}) (*models.Account, error) {
	account, err := s.FindByHandle(loginHandle)
	if err != nil || account == nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		profile, err := s.loadOrInitProfile(tx, account.ID)
		if err != nil {
			return err
		}
		if profile.ExtraProfile == nil {
			profile.ExtraProfile = datatypes.JSONMap{}
		}
		profile.ExtraProfile[key] = value
		return tx.Save(profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update extra profile: %w", err)
	}

	return s.FindByHandle(loginHandle)
}

// RecordLogout appends a logout audit entry for accountID. Logout bookkeeping
// is best-effort: an unknown account is a no-op and storage failures are
// logged and swallowed so session teardown is never blocked.
func (s *AccountService) RecordLogout(accountID int64, ip, userAgent string) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Select("id").First(&account, "id = ?", accountID).Error; err != nil {
			return err
		}
		return s.audit.Append(tx, account.ID, models.AuditLogout, AuditMeta{IP: ip, UserAgent: userAgent})
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Warn("failed to record logout", "account_id", accountID, "error", err)
	}
}

// DeleteAccount removes an account after re-checking its password, cascading
// to its profile, session tokens, and audit entries in one transaction.
func (s *AccountService) DeleteAccount(accountID int64, password string) error {
	var account models.Account
	if err := s.db.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	if !credential.Verify(password, account.PasswordHash) {
		return &AuthRejectedError{Reason: RejectBadCredentials}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&models.SessionToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("actor_account_id = ?", accountID).Delete(&models.AuditLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", accountID).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&account).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// ListAccounts returns up to limit accounts with their profiles, oldest
// first, for the operational admin view.
func (s *AccountService) ListAccounts(limit int) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.Preload("Profile").Order("id ASC").Limit(clampLimit(limit)).Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) loadOrInitProfile(tx *gorm.DB, accountID int64) (*models.Profile, error) {
	var profile models.Profile
	err := tx.First(&profile, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		profile = models.Profile{AccountID: accountID, ExtraProfile: datatypes.JSONMap{}}
		if err := tx.Create(&profile).Error; err != nil {
			return nil, err
		}
		return &profile, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func applyProfileField(profile *models.Profile, name string, value interface{}) {
	switch name {
	case "age":
		profile.Age = toIntPtr(value)
		return
	}

	str := toStringPtr(value)
	switch name {
	case "full_name":
		profile.FullName = str
	case "phone":
		profile.Phone = str
	case "email":
		profile.Email = str
	case "gender":
		profile.Gender = str
	case "display_name":
		profile.DisplayName = str
	case "address":
		profile.Address = str
	}
}

func toStringPtr(value interface{}) *string {
	s, ok := value.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func toIntPtr(value interface{}) *int {
	switch v := value.(type) {
	case int:
		return &v
	case int64:
		n := int(v)
		return &n
	case float64:
		// JSON numbers decode as float64.
		n := int(v)
		return &n
	}
	return nil
}

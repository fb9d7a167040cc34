package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/bosun-mobility/auth-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serializes
	// concurrent writers.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Profile{},
		&models.AuditLog{},
		&models.SessionToken{},
	))
	return db
}

func newTestService(t *testing.T) (*AccountService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewAccountService(db, NewAuditService(db)), db
}

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n).Error)
	return n
}

func TestCreateAccount(t *testing.T) {
	svc, db := newTestService(t)

	account, err := svc.CreateAccount("admin@example.com", "password123", models.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.NotZero(t, account.ID)
	assert.Equal(t, "admin@example.com", account.LoginHandle)
	assert.Equal(t, models.LoginKindEmail, account.LoginKind)
	assert.Equal(t, models.RoleAdmin, account.Role)
	assert.Equal(t, models.StatusActive, account.Status)
	assert.NotEqual(t, "password123", account.PasswordHash)
	assert.NotNil(t, account.PasswordChangedAt)

	// Account and profile are created together.
	var profile models.Profile
	require.NoError(t, db.First(&profile, "account_id = ?", account.ID).Error)

	// Exactly one user_created entry attributed to the new account.
	var entries []models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditUserCreated).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, account.ID, entries[0].ActorAccountID)
}

func TestCreateAccountPhoneHandle(t *testing.T) {
	svc, _ := newTestService(t)

	account, err := svc.CreateAccount("13800138000", "123456", models.RoleDriver)
	require.NoError(t, err)
	assert.Equal(t, models.LoginKindPhone, account.LoginKind)
}

func TestCreateAccountValidation(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.CreateAccount("", "password123", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateAccount("user@example.com", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	var n int64
	require.NoError(t, db.Model(&models.Account{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateAccountDefaultsToPassenger(t *testing.T) {
	svc, _ := newTestService(t)

	account, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)
	assert.Equal(t, models.RolePassenger, account.Role)
}

func TestCreateAccountDuplicate(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)

	_, err = svc.CreateAccount("user@example.com", "different-password", "")
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	var n int64
	require.NoError(t, db.Model(&models.Account{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	// The failed attempt rolled back completely: no stray audit entry.
	assert.Equal(t, int64(1), countAudit(t, db, models.AuditUserCreated))
}

func TestCreateAccountConcurrentDuplicate(t *testing.T) {
	svc, db := newTestService(t)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateAccount("race@example.com", "password123", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrDuplicateAccount):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, duplicates)

	var n int64
	require.NoError(t, db.Model(&models.Account{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestFindByHandle(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)

	found, err := svc.FindByHandle("user@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	require.NotNil(t, found.Profile)

	// Exact, case-sensitive match only.
	missing, err := svc.FindByHandle("User@Example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.CreateAccount("admin@example.com", "password123", models.RoleAdmin)
	require.NoError(t, err)

	account, err := svc.Authenticate("admin@example.com", "password123", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, created.ID, account.ID)

	assert.Equal(t, int64(1), countAudit(t, db, models.AuditLoginSuccess))
	assert.Equal(t, int64(0), countAudit(t, db, models.AuditLoginFailed))

	var entry models.AuditLog
	require.NoError(t, db.Where("action = ?", models.AuditLoginSuccess).First(&entry).Error)
	assert.Equal(t, created.ID, entry.ActorAccountID)
	require.NotNil(t, entry.IP)
	assert.Equal(t, "10.0.0.1", *entry.IP)
	require.NotNil(t, entry.UserAgent)
	assert.Equal(t, "test-agent", *entry.UserAgent)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.CreateAccount("admin@example.com", "password123", models.RoleAdmin)
	require.NoError(t, err)

	account, err := svc.Authenticate("admin@example.com", "wrongpass", "", "")
	assert.Nil(t, account)

	var rejected *AuthRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, RejectBadCredentials, rejected.Reason)

	assert.Equal(t, int64(1), countAudit(t, db, models.AuditLoginFailed))
	assert.Equal(t, int64(0), countAudit(t, db, models.AuditLoginSuccess))
}

func TestAuthenticateUnknownHandle(t *testing.T) {
	svc, db := newTestService(t)

	account, err := svc.Authenticate("nobody@example.com", "password123", "", "")
	assert.Nil(t, account)

	var rejected *AuthRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, RejectUnknownAccount, rejected.Reason)

	// No actor, no entry.
	var n int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Account{}).Where("id = ?", created.ID).
		Update("status", models.StatusDisabled).Error)

	account, err := svc.Authenticate("user@example.com", "123456", "", "")
	assert.Nil(t, account)

	// A disabled account with the right password is indistinguishable from
	// a wrong password in the returned reason, but still leaves a trace.
	var rejected *AuthRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, RejectBadCredentials, rejected.Reason)
	assert.Equal(t, int64(1), countAudit(t, db, models.AuditLoginFailed))
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount("admin@example.com", "password123", models.RoleAdmin)
	require.NoError(t, err)

	account, err := svc.UpdateProfile("admin@example.com", map[string]interface{}{
		"full_name":     "Admin",
		"age":           float64(42), // JSON numbers arrive as float64
		"unknown_field": "silently ignored",
	})
	require.NoError(t, err)
	require.NotNil(t, account)
	require.NotNil(t, account.Profile)

	require.NotNil(t, account.Profile.FullName)
	assert.Equal(t, "Admin", *account.Profile.FullName)
	require.NotNil(t, account.Profile.Age)
	assert.Equal(t, 42, *account.Profile.Age)
	_, ok := account.Profile.Extra("unknown_field")
	assert.False(t, ok)
}

func TestUpdateProfileUnknownHandle(t *testing.T) {
	svc, db := newTestService(t)

	account, err := svc.UpdateProfile("nobody@example.com", map[string]interface{}{
		"full_name": "Nobody",
	})
	require.NoError(t, err)
	assert.Nil(t, account)

	var n int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateProfileRecreatesMissingRow(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)
	require.NoError(t, db.Where("account_id = ?", created.ID).Delete(&models.Profile{}).Error)

	account, err := svc.UpdateProfile("user@example.com", map[string]interface{}{
		"display_name": "TestUser",
	})
	require.NoError(t, err)
	require.NotNil(t, account.Profile)
	require.NotNil(t, account.Profile.DisplayName)
	assert.Equal(t, "TestUser", *account.Profile.DisplayName)
}

func TestSetProfileExtra(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount("13800138000", "123456", models.RoleDriver)
	require.NoError(t, err)

	_, err = svc.SetProfileExtra("13800138000", "license_number", "DL123456789")
	require.NoError(t, err)
	account, err := svc.SetProfileExtra("13800138000", "vehicle_type", "sedan")
	require.NoError(t, err)
	require.NotNil(t, account.Profile)

	// Both keys survive: the whole mapping is written back each time.
	license, ok := account.Profile.Extra("license_number")
	require.True(t, ok)
	assert.Equal(t, "DL123456789", license)
	vehicle, ok := account.Profile.Extra("vehicle_type")
	require.True(t, ok)
	assert.Equal(t, "sedan", vehicle)
}

func TestSetProfileExtraUnknownHandle(t *testing.T) {
	svc, _ := newTestService(t)

	account, err := svc.SetProfileExtra("nobody@example.com", "key", "value")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestRecordLogout(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)

	svc.RecordLogout(created.ID, "10.0.0.1", "test-agent")
	assert.Equal(t, int64(1), countAudit(t, db, models.AuditLogout))

	// Unknown account: best-effort no-op, nothing recorded.
	svc.RecordLogout(99999, "10.0.0.1", "test-agent")
	assert.Equal(t, int64(1), countAudit(t, db, models.AuditLogout))
}

func TestDeleteAccount(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.CreateAccount("user@example.com", "123456", "")
	require.NoError(t, err)
	_, err = svc.Authenticate("user@example.com", "123456", "", "")
	require.NoError(t, err)

	err = svc.DeleteAccount(created.ID, "wrong-password")
	var rejected *AuthRejectedError
	require.ErrorAs(t, err, &rejected)

	require.NoError(t, svc.DeleteAccount(created.ID, "123456"))

	var accounts, profiles, audits int64
	require.NoError(t, db.Model(&models.Account{}).Count(&accounts).Error)
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&audits).Error)
	assert.Zero(t, accounts)
	assert.Zero(t, profiles)
	assert.Zero(t, audits)

	assert.ErrorIs(t, svc.DeleteAccount(created.ID, "123456"), ErrAccountNotFound)
}

func TestListAccounts(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount("a@example.com", "123456", "")
	require.NoError(t, err)
	_, err = svc.CreateAccount("b@example.com", "123456", "")
	require.NoError(t, err)

	accounts, err := svc.ListAccounts(10)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "a@example.com", accounts[0].LoginHandle)
	require.NotNil(t, accounts[0].Profile)
}

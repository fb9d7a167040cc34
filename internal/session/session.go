// Package session is the boundary that turns a successful authentication
// into an opaque session identity. The account service itself neither mints
// nor stores any of these tokens.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bosun-mobility/auth-backend/internal/config"
	"github.com/bosun-mobility/auth-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidToken = errors.New("invalid or expired refresh token")

// Tokens is the pair handed to a caller: a short-lived access JWT carrying
// the account identity and a long-lived opaque refresh token.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

type Manager struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewManager(db *gorm.DB, cfg *config.Config) *Manager {
	return &Manager{db: db, cfg: cfg}
}

// Issue creates a session for account: an access JWT with the account id,
// login handle, and role as claims, plus a random refresh token stored only
// as a SHA-256 hash.
func (m *Manager) Issue(account *models.Account) (*Tokens, error) {
	claims := jwt.MapClaims{
		"sub":    strconv.FormatInt(account.ID, 10),
		"handle": account.LoginHandle,
		"role":   account.Role,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(m.cfg.JWTAccessExpiry).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	raw := base64.URLEncoding.EncodeToString(rawBytes)

	record := models.SessionToken{
		ID:        uuid.New(),
		AccountID: account.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().Add(m.cfg.SessionRefreshExpiry),
	}
	if err := m.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to store session token: %w", err)
	}

	return &Tokens{AccessToken: access, RefreshToken: raw}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued for its account.
func (m *Manager) Refresh(raw string) (*models.Account, *Tokens, error) {
	var stored models.SessionToken
	err := m.db.Where("token_hash = ? AND revoked = ?", hashToken(raw), false).First(&stored).Error
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		m.db.Model(&stored).Update("revoked", true)
		return nil, nil, ErrInvalidToken
	}

	if err := m.db.Model(&stored).Update("revoked", true).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to rotate session token: %w", err)
	}

	var account models.Account
	if err := m.db.First(&account, "id = ?", stored.AccountID).Error; err != nil {
		return nil, nil, ErrInvalidToken
	}

	tokens, err := m.Issue(&account)
	if err != nil {
		return nil, nil, err
	}
	return &account, tokens, nil
}

// Revoke invalidates a refresh token. Revoking an unknown token is a no-op.
func (m *Manager) Revoke(raw string) error {
	return m.db.Model(&models.SessionToken{}).
		Where("token_hash = ?", hashToken(raw)).
		Update("revoked", true).Error
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

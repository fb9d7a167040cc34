// Command seed provisions the development fixture accounts: an admin, a
// passenger, and a phone-handle driver with extra profile attributes.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/bosun-mobility/auth-backend/internal/config"
	"github.com/bosun-mobility/auth-backend/internal/database"
	"github.com/bosun-mobility/auth-backend/internal/logging"
	"github.com/bosun-mobility/auth-backend/internal/models"
	"github.com/bosun-mobility/auth-backend/internal/services"
)

type fixture struct {
	handle   string
	password string
	role     string
	profile  map[string]interface{}
	extra    map[string]interface{}
}

var fixtures = []fixture{
	{
		handle:   "admin@example.com",
		password: "password123",
		role:     models.RoleAdmin,
		profile: map[string]interface{}{
			"full_name":    "System Administrator",
			"email":        "admin@example.com",
			"display_name": "Admin",
		},
	},
	{
		handle:   "user@example.com",
		password: "123456",
		role:     models.RolePassenger,
		profile: map[string]interface{}{
			"full_name":    "Test User",
			"email":        "user@example.com",
			"display_name": "TestUser",
			"age":          25,
			"gender":       "male",
		},
	},
	{
		handle:   "13800138000",
		password: "123456",
		role:     models.RoleDriver,
		profile: map[string]interface{}{
			"full_name":    "Driver User",
			"phone":        "13800138000",
			"display_name": "Driver01",
			"age":          30,
			"gender":       "male",
		},
		extra: map[string]interface{}{
			"license_number": "DL123456789",
			"vehicle_type":   "sedan",
		},
	},
}

func main() {
	cfg := config.Load()
	logging.Setup(cfg.AppEnv)

	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	auditService := services.NewAuditService(database.DB)
	accountService := services.NewAccountService(database.DB, auditService)

	for _, f := range fixtures {
		account, err := accountService.CreateAccount(f.handle, f.password, f.role)
		if errors.Is(err, services.ErrDuplicateAccount) {
			slog.Info("account already exists, skipping", "handle", f.handle)
			continue
		}
		if err != nil {
			slog.Error("failed to seed account", "handle", f.handle, "error", err)
			os.Exit(1)
		}

		if len(f.profile) > 0 {
			if _, err := accountService.UpdateProfile(f.handle, f.profile); err != nil {
				slog.Error("failed to seed profile", "handle", f.handle, "error", err)
				os.Exit(1)
			}
		}
		for key, value := range f.extra {
			if _, err := accountService.SetProfileExtra(f.handle, key, value); err != nil {
				slog.Error("failed to seed extra profile", "handle", f.handle, "key", key, "error", err)
				os.Exit(1)
			}
		}

		slog.Info("account seeded", "handle", f.handle, "role", f.role, "id", account.ID)
	}
}

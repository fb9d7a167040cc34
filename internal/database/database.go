package database

import (
	"fmt"
	"log/slog"

	"github.com/bosun-mobility/auth-backend/internal/config"
	"github.com/bosun-mobility/auth-backend/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the configured storage engine. The testing environment uses
// an in-memory SQLite database; everything else is Postgres. TranslateError
// is enabled so unique-index violations surface as gorm.ErrDuplicatedKey
// regardless of driver.
func Connect(cfg *config.Config) error {
	var (
		dialector gorm.Dialector
		err       error
	)
	if cfg.IsTesting() {
		dialector = sqlite.Open(":memory:")
	} else {
		dialector = postgres.Open(cfg.DSN())
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.IsTesting() {
		// A single connection keeps the shared in-memory database alive
		// and serializes concurrent writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
		sqlDB.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)
	}

	slog.Info("database connected", "env", cfg.AppEnv)
	return nil
}

// Migrate runs AutoMigrate for all persisted models.
func Migrate() error {
	return DB.AutoMigrate(
		&models.Account{},
		&models.Profile{},
		&models.AuditLog{},
		&models.SessionToken{},
		&models.SystemLog{},
	)
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

package middleware

import (
	"github.com/bosun-mobility/auth-backend/internal/dto"
	"github.com/bosun-mobility/auth-backend/internal/models"
	"github.com/bosun-mobility/auth-backend/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AdminRequired gates a route on the caller's role. The JWT role claim is a
// fast path; the database row is the authority so a demoted admin loses
// access as soon as the account record changes.
func AdminRequired(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := session.AccountID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		if role, err := session.Role(c); err != nil || role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		var account models.Account
		if err := db.Select("id", "role", "status").First(&account, "id = ?", accountID).Error; err != nil ||
			!account.IsAdmin() || !account.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}

		return c.Next()
	}
}

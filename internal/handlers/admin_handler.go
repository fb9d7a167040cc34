package handlers

import (
	"github.com/bosun-mobility/auth-backend/internal/dto"
	"github.com/bosun-mobility/auth-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes the operational read views: recent audit entries and
// the account listing.
type AdminHandler struct {
	accounts *services.AccountService
	audit    *services.AuditService
}

func NewAdminHandler(accounts *services.AccountService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{accounts: accounts, audit: audit}
}

func (h *AdminHandler) ListAudit(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	if actorID := c.QueryInt("actor_id", 0); actorID > 0 {
		entries, err := h.audit.ByActor(int64(actorID), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		return c.JSON(fiber.Map{"entries": entries})
	}

	entries, err := h.audit.Recent(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (h *AdminHandler) ListAccounts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	accounts, err := h.accounts.ListAccounts(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(fiber.Map{"accounts": accounts})
}

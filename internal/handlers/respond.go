package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
)

// respondError maps a service error to its HTTP status and a stable code.
// Internal causes stay in the logs, never in the response body.
func respondError(c *fiber.Ctx, err error) error {
	return c.Status(apperrors.HTTPStatus(err)).JSON(fiber.Map{
		"error": apperrors.Message(err),
		"code":  apperrors.CodeOf(err),
	})
}

// actorID reads the authenticated actor set by the auth middleware.
func actorID(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	return id
}

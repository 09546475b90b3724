package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
)

// OrderLogHandler exposes the order audit trail route.
type OrderLogHandler struct {
	service *services.OrderService
	auth    *middleware.Auth
}

// NewOrderLogHandler creates the order log handler.
func NewOrderLogHandler(service *services.OrderService, auth *middleware.Auth) *OrderLogHandler {
	return &OrderLogHandler{service: service, auth: auth}
}

// RegisterRoutes mounts the order log routes.
func (h *OrderLogHandler) RegisterRoutes(router fiber.Router) {
	logs := router.Group("/order-log", h.auth.RequireCustomer())
	logs.Get("/:order_id", h.HandleList)
}

func (h *OrderLogHandler) HandleList(c *fiber.Ctx) error {
	entries, err := h.service.ListOrderLogs(c.Context(), c.Params("order_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

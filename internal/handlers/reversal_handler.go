package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
)

// ReversalHandler exposes the refund request routes.
type ReversalHandler struct {
	service *services.ReversalService
	auth    *middleware.Auth
}

// NewReversalHandler creates the reversal handler.
func NewReversalHandler(service *services.ReversalService, auth *middleware.Auth) *ReversalHandler {
	return &ReversalHandler{service: service, auth: auth}
}

// RegisterRoutes mounts the reversal routes. Customers open reversals,
// sellers resolve them.
func (h *ReversalHandler) RegisterRoutes(router fiber.Router) {
	reversal := router.Group("/reversal")
	reversal.Post("/:order_id", h.auth.RequireCustomer(), h.HandleCreate)
	reversal.Get("/:order_id", h.auth.RequireCustomer(), h.HandleGet)
	reversal.Put("/accept/:order_id", h.auth.RequireSeller(), h.HandleAccept)
	reversal.Put("/refuse/:order_id", h.auth.RequireSeller(), h.HandleRefuse)
}

func (h *ReversalHandler) HandleCreate(c *fiber.Ctx) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.InvalidInput("invalid request body"))
	}

	reversal, err := h.service.CreateReversal(c.Context(), actorID(c), c.Params("order_id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reversal)
}

func (h *ReversalHandler) HandleGet(c *fiber.Ctx) error {
	reversal, err := h.service.GetReversal(c.Context(), c.Params("order_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reversal)
}

func (h *ReversalHandler) HandleAccept(c *fiber.Ctx) error {
	if err := h.service.AcceptReversal(c.Context(), actorID(c), c.Params("order_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reversal accepted successfully"})
}

func (h *ReversalHandler) HandleRefuse(c *fiber.Ctx) error {
	if err := h.service.RefuseReversal(c.Context(), actorID(c), c.Params("order_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reversal refused successfully"})
}

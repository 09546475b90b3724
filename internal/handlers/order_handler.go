package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
)

// OrderHandler exposes checkout and the single-order transitions.
type OrderHandler struct {
	service *services.OrderService
	auth    *middleware.Auth
}

// NewOrderHandler creates the order handler.
func NewOrderHandler(service *services.OrderService, auth *middleware.Auth) *OrderHandler {
	return &OrderHandler{service: service, auth: auth}
}

// RegisterRoutes mounts the order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orders := router.Group("/orders")
	orders.Post("/", h.auth.RequireCustomer(), h.HandleCreateOrder)
	orders.Get("/detail/:order_id", h.auth.RequireCustomer(), h.HandleGetOrder)
	orders.Get("/:status", h.auth.RequireCustomer(), h.HandleListOrders)
	orders.Get("/seller/:status", h.auth.RequireSeller(), h.HandleListOrders)
	orders.Put("/cancel/:order_id", h.auth.RequireCustomer(), h.HandleCancelOrder)
	orders.Put("/payment/:order_id", h.auth.RequireCustomer(), h.HandleCompletePayment)
	orders.Put("/accept/:order_id", h.auth.RequireSeller(), h.HandleAcceptOrder)
	orders.Put("/refuse/:order_id", h.auth.RequireSeller(), h.HandleRefuseOrder)
}

// HandleCreateOrder runs the checkout saga for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req services.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.InvalidInput("invalid request body"))
	}

	orderIDs, err := h.service.CreateOrder(c.Context(), actorID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Order created successfully",
		"order_ids": orderIDs,
	})
}

func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	detail, err := h.service.GetOrder(c.Context(), c.Params("order_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	role, _ := c.Locals(middleware.LocalRole).(string)
	summaries, err := h.service.ListOrders(c.Context(), actorID(c), role, c.Params("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries)
}

func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	if err := h.service.CancelOrder(c.Context(), actorID(c), c.Params("order_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order cancelled successfully"})
}

func (h *OrderHandler) HandleCompletePayment(c *fiber.Ctx) error {
	if err := h.service.CompletePayment(c.Context(), actorID(c), c.Params("order_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Payment completed successfully"})
}

func (h *OrderHandler) HandleAcceptOrder(c *fiber.Ctx) error {
	if err := h.service.AcceptOrder(c.Context(), actorID(c), c.Params("order_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order accepted successfully"})
}

func (h *OrderHandler) HandleRefuseOrder(c *fiber.Ctx) error {
	if err := h.service.RefuseOrder(c.Context(), actorID(c), c.Params("order_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Order refused successfully"})
}

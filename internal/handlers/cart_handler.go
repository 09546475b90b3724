package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
)

// CartHandler exposes the customer cart routes.
type CartHandler struct {
	service *services.CartService
	auth    *middleware.Auth
}

// NewCartHandler creates the cart handler.
func NewCartHandler(service *services.CartService, auth *middleware.Auth) *CartHandler {
	return &CartHandler{service: service, auth: auth}
}

// RegisterRoutes mounts the cart routes; all of them are customer-only.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cart := router.Group("/cart", h.auth.RequireCustomer())
	cart.Get("/", h.HandleGetCart)
	cart.Get("/:product_id", h.HandleGetItem)
	cart.Post("/", h.HandleAddItem)
	cart.Put("/quantity", h.HandleUpdateQuantity)
	cart.Put("/sku", h.HandleUpdateSKU)
	cart.Delete("/item/:product_id", h.HandleRemoveItem)
	cart.Delete("/", h.HandleClear)
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(c.Context(), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleGetItem(c *fiber.Ctx) error {
	item, err := h.service.GetItem(c.Context(), actorID(c), c.Params("product_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var item models.CartItem
	if err := c.BodyParser(&item); err != nil {
		return respondError(c, apperrors.InvalidInput("invalid request body"))
	}

	if err := h.service.AddItem(c.Context(), actorID(c), item); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item added to cart successfully"})
}

func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.InvalidInput("invalid request body"))
	}

	if err := h.service.UpdateQuantity(c.Context(), actorID(c), req.ProductID, req.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Updated quantity successfully"})
}

func (h *CartHandler) HandleUpdateSKU(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"product_id"`
		SKU       string `json:"sku"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, apperrors.InvalidInput("invalid request body"))
	}

	if err := h.service.UpdateSKU(c.Context(), actorID(c), req.ProductID, req.SKU); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Updated SKU successfully"})
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(c.Context(), actorID(c), c.Params("product_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart successfully"})
}

func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.service.Clear(c.Context(), actorID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared successfully"})
}

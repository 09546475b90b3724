package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
)

// WishlistHandler exposes the customer wishlist routes.
type WishlistHandler struct {
	service *services.WishlistService
	auth    *middleware.Auth
}

// NewWishlistHandler creates the wishlist handler.
func NewWishlistHandler(service *services.WishlistService, auth *middleware.Auth) *WishlistHandler {
	return &WishlistHandler{service: service, auth: auth}
}

// RegisterRoutes mounts the wishlist routes; all of them are customer-only.
func (h *WishlistHandler) RegisterRoutes(router fiber.Router) {
	wishlist := router.Group("/wishlist", h.auth.RequireCustomer())
	wishlist.Get("/", h.HandleGet)
	wishlist.Post("/:product_id", h.HandleAdd)
	wishlist.Delete("/item/:product_id", h.HandleRemove)
	wishlist.Delete("/", h.HandleClear)
}

func (h *WishlistHandler) HandleGet(c *fiber.Ctx) error {
	entries, err := h.service.Get(c.Context(), actorID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

func (h *WishlistHandler) HandleAdd(c *fiber.Ctx) error {
	if err := h.service.Add(c.Context(), actorID(c), c.Params("product_id")); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product added to wishlist successfully"})
}

func (h *WishlistHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.Context(), actorID(c), c.Params("product_id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product removed from wishlist successfully"})
}

func (h *WishlistHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.service.Clear(c.Context(), actorID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Wishlist cleared successfully"})
}

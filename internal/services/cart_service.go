package services

import (
	"context"
	"log/slog"

	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
)

// EnrichedCartItem is a cart line joined with its catalog record.
type EnrichedCartItem struct {
	models.CartItem
	Name     string           `json:"name,omitempty"`
	Image    string           `json:"image,omitempty"`
	Variants []models.Variant `json:"variants,omitempty"`
}

// EnrichedCart is the customer-facing cart view.
type EnrichedCart struct {
	CustomerID string             `json:"customer_id"`
	Items      []EnrichedCartItem `json:"items"`
}

// CartService owns the customer's cart.
type CartService struct {
	carts   repositories.CartRepository
	gateway producers.Gateway
	log     *slog.Logger
}

// NewCartService wires the cart service.
func NewCartService(carts repositories.CartRepository, gateway producers.Gateway, log *slog.Logger) *CartService {
	if log == nil {
		log = slog.Default()
	}
	return &CartService{carts: carts, gateway: gateway, log: log}
}

// GetCart returns the cart with each line joined against the catalog.
// Products that no longer resolve come back as bare lines.
func (s *CartService) GetCart(ctx context.Context, customerID string) (*EnrichedCart, error) {
	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	enriched := &EnrichedCart{
		CustomerID: cart.CustomerID,
		Items:      make([]EnrichedCartItem, len(cart.Items)),
	}
	for i, item := range cart.Items {
		enriched.Items[i] = EnrichedCartItem{CartItem: item}

		product, err := s.gateway.GetProductByID(ctx, item.ProductID)
		if err != nil {
			s.log.Warn("cart product enrichment failed",
				"product_id", item.ProductID, "error", err)
			continue
		}
		enriched.Items[i].Name = product.Name
		enriched.Items[i].Variants = product.Variants
		if len(product.Images) > 0 {
			enriched.Items[i].Image = product.Images[0]
		}
	}
	return enriched, nil
}

// GetItem returns one cart line by product.
func (s *CartService) GetItem(ctx context.Context, customerID, productID string) (*models.CartItem, error) {
	return s.carts.GetItem(ctx, customerID, productID)
}

// AddItem puts a product line into the cart. The product must resolve in the
// catalog; adding a product already in the cart is a conflict.
func (s *CartService) AddItem(ctx context.Context, customerID string, item models.CartItem) error {
	if _, err := s.gateway.GetProductByID(ctx, item.ProductID); err != nil {
		return err
	}
	return s.carts.AddItem(ctx, customerID, item)
}

func (s *CartService) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	return s.carts.UpdateQuantity(ctx, customerID, productID, quantity)
}

func (s *CartService) UpdateSKU(ctx context.Context, customerID, productID, sku string) error {
	return s.carts.UpdateSKU(ctx, customerID, productID, sku)
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string) error {
	return s.carts.RemoveItem(ctx, customerID, productID)
}

func (s *CartService) Clear(ctx context.Context, customerID string) error {
	return s.carts.Clear(ctx, customerID)
}

package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
)

// WishlistEntry is a wishlist product joined with its catalog record.
type WishlistEntry struct {
	ProductID  string           `json:"product_id"`
	Name       string           `json:"name"`
	Image      string           `json:"image,omitempty"`
	Address    string           `json:"address,omitempty"`
	Origin     string           `json:"origin,omitempty"`
	Variants   []models.Variant `json:"variants"`
	PriceMin   float64          `json:"price_min"`
	TotalStock int              `json:"total_stock"`
}

// WishlistService owns the customer's wishlist.
type WishlistService struct {
	wishlists repositories.WishlistRepository
	gateway   producers.Gateway
	notifier  *notifier
	log       *slog.Logger
}

// NewWishlistService wires the wishlist service.
func NewWishlistService(wishlists repositories.WishlistRepository, gateway producers.Gateway, log *slog.Logger) *WishlistService {
	if log == nil {
		log = slog.Default()
	}
	return &WishlistService{
		wishlists: wishlists,
		gateway:   gateway,
		notifier:  &notifier{gateway: gateway, log: log},
		log:       log,
	}
}

// Get returns the wishlist joined against the catalog. Products that no
// longer resolve are skipped.
func (s *WishlistService) Get(ctx context.Context, customerID string) ([]WishlistEntry, error) {
	productIDs, err := s.wishlists.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	entries := make([]WishlistEntry, 0, len(productIDs))
	for _, productID := range productIDs {
		product, err := s.gateway.GetProductByID(ctx, productID)
		if err != nil {
			s.log.Warn("wishlist product no longer resolves",
				"product_id", productID, "error", err)
			continue
		}

		entry := WishlistEntry{
			ProductID: productID,
			Name:      product.Name,
			Address:   product.Address,
			Origin:    product.Origin,
			Variants:  product.Variants,
			PriceMin:  math.Inf(1),
		}
		if len(product.Images) > 0 {
			entry.Image = product.Images[0]
		}
		for _, variant := range product.Variants {
			entry.TotalStock += variant.Stock
			if variant.Price < entry.PriceMin {
				entry.PriceMin = variant.Price
			}
		}
		if len(product.Variants) == 0 {
			entry.PriceMin = 0
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Add puts a product on the wishlist after checking it resolves in the
// catalog.
func (s *WishlistService) Add(ctx context.Context, customerID, productID string) error {
	if _, err := s.gateway.GetProductByID(ctx, productID); err != nil {
		return err
	}
	if err := s.wishlists.Add(ctx, customerID, productID); err != nil {
		return err
	}
	s.notifier.analytic(ctx, productID, "wishlist_added", 1)
	return nil
}

// Remove takes a product off the wishlist.
func (s *WishlistService) Remove(ctx context.Context, customerID, productID string) error {
	if err := s.wishlists.Remove(ctx, customerID, productID); err != nil {
		return err
	}
	s.notifier.analytic(ctx, productID, "wishlist_removed", 1)
	return nil
}

// Clear empties the wishlist.
func (s *WishlistService) Clear(ctx context.Context, customerID string) error {
	return s.wishlists.Clear(ctx, customerID)
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/pkg/mongodb"
)

// CartRepository is the cart collection's data access contract.
type CartRepository interface {
	Get(ctx context.Context, customerID string) (*models.Cart, error)
	GetItem(ctx context.Context, customerID, productID string) (*models.CartItem, error)
	AddItem(ctx context.Context, customerID string, item models.CartItem) error
	UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error
	UpdateSKU(ctx context.Context, customerID, productID, sku string) error
	RemoveItem(ctx context.Context, customerID, productID string) error
	RemoveItems(ctx context.Context, customerID string, productIDs []string) error
	Clear(ctx context.Context, customerID string) error
}

type cartRepo struct {
	coll *mongo.Collection
}

// NewCartRepository returns the Mongo-backed cart repository.
func NewCartRepository(store *mongodb.Store) CartRepository {
	return &cartRepo{coll: store.Collection("carts")}
}

// Get returns the customer's cart, or an empty cart if none exists yet.
func (r *cartRepo) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.coll.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("find cart: %w", err))
	}
	return &cart, nil
}

func (r *cartRepo) GetItem(ctx context.Context, customerID, productID string) (*models.CartItem, error) {
	filter := bson.M{"customer_id": customerID, "items.product_id": productID}
	opts := options.FindOne().SetProjection(bson.M{"items.$": 1})

	var cart models.Cart
	err := r.coll.FindOne(ctx, filter, opts).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("cart item not found: %s", productID)
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("find cart item: %w", err))
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.NotFound("cart item not found: %s", productID)
	}
	return &cart.Items[0], nil
}

// AddItem appends a new line item, creating the cart on first add. The update
// filter excludes carts already holding the product, so the write itself
// enforces the one-line-per-product invariant: a duplicate add misses the
// filter, upserts against the unique customer_id index, and surfaces as a
// conflict even under concurrent adds.
func (r *cartRepo) AddItem(ctx context.Context, customerID string, item models.CartItem) error {
	if err := validateDoc(item); err != nil {
		return err
	}

	now := time.Now()
	_, err := r.coll.UpdateOne(ctx,
		bson.M{
			"customer_id":      customerID,
			"items.product_id": bson.M{"$ne": item.ProductID},
		},
		bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict("product %s is already in the cart", item.ProductID)
	}
	if err != nil {
		return apperrors.Storage(fmt.Errorf("add cart item: %w", err))
	}
	return nil
}

func (r *cartRepo) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.InvalidInput("quantity must be at least 1")
	}
	return r.updateItemField(ctx, customerID, productID, bson.M{"items.$.quantity": quantity})
}

func (r *cartRepo) UpdateSKU(ctx context.Context, customerID, productID, sku string) error {
	if sku == "" {
		return apperrors.InvalidInput("sku is required")
	}
	return r.updateItemField(ctx, customerID, productID, bson.M{"items.$.selected_sku": sku})
}

func (r *cartRepo) updateItemField(ctx context.Context, customerID, productID string, set bson.M) error {
	set["updated_at"] = time.Now()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID, "items.product_id": productID},
		bson.M{"$set": set},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("update cart item: %w", err))
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("cart item not found: %s", productID)
	}
	return nil
}

func (r *cartRepo) RemoveItem(ctx context.Context, customerID, productID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product_id": productID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("remove cart item: %w", err))
	}
	if res.ModifiedCount == 0 {
		return apperrors.NotFound("cart item not found: %s", productID)
	}
	return nil
}

// RemoveItems pulls the purchased products out of the cart during checkout.
// Items already absent are not an error: the customer may have bought straight
// from a product page.
func (r *cartRepo) RemoveItems(ctx context.Context, customerID string, productIDs []string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"product_id": bson.M{"$in": productIDs}}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("remove cart items: %w", err))
	}
	return nil
}

func (r *cartRepo) Clear(ctx context.Context, customerID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("clear cart: %w", err))
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("cart not found")
	}
	return nil
}

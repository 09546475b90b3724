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

// WishlistRepository is the wishlists collection's data access contract.
type WishlistRepository interface {
	Get(ctx context.Context, customerID string) ([]string, error)
	Add(ctx context.Context, customerID, productID string) error
	Remove(ctx context.Context, customerID, productID string) error
	Clear(ctx context.Context, customerID string) error
}

type wishlistRepo struct {
	coll *mongo.Collection
}

// NewWishlistRepository returns the Mongo-backed wishlist repository.
func NewWishlistRepository(store *mongodb.Store) WishlistRepository {
	return &wishlistRepo{coll: store.Collection("wishlists")}
}

func (r *wishlistRepo) Get(ctx context.Context, customerID string) ([]string, error) {
	var wl models.Wishlist
	err := r.coll.FindOne(ctx, bson.M{"customer_id": customerID}).Decode(&wl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []string{}, nil
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("find wishlist: %w", err))
	}
	if wl.Wishlist == nil {
		return []string{}, nil
	}
	return wl.Wishlist, nil
}

// Add inserts the product into the customer's wishlist set, creating the
// document on first use. Adding a product twice is a no-op.
func (r *wishlistRepo) Add(ctx context.Context, customerID, productID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{
			"$addToSet":    bson.M{"wishlist": productID},
			"$set":         bson.M{"updated_at": time.Now()},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("add to wishlist: %w", err))
	}
	return nil
}

func (r *wishlistRepo) Remove(ctx context.Context, customerID, productID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{
			"$pull": bson.M{"wishlist": productID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("remove from wishlist: %w", err))
	}
	if res.ModifiedCount == 0 {
		return apperrors.NotFound("product %s is not in the wishlist", productID)
	}
	return nil
}

func (r *wishlistRepo) Clear(ctx context.Context, customerID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"customer_id": customerID},
		bson.M{"$set": bson.M{"wishlist": []string{}, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("clear wishlist: %w", err))
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("wishlist not found")
	}
	return nil
}

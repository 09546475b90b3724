package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/pkg/mongodb"
)

// ReversalRepository is the reversals collection's data access contract.
type ReversalRepository interface {
	Create(ctx context.Context, reversal models.Reversal) error
	GetByOrder(ctx context.Context, orderID string) (*models.Reversal, error)
	// Resolve moves a pending reversal to a terminal status. Only one of two
	// racing resolutions can match the pending filter; the loser gets a
	// conflict, never a silent no-op.
	Resolve(ctx context.Context, orderID, sellerID, status string) error
}

type reversalRepo struct {
	coll *mongo.Collection
}

// NewReversalRepository returns the Mongo-backed reversal repository.
func NewReversalRepository(store *mongodb.Store) ReversalRepository {
	return &reversalRepo{coll: store.Collection("reversals")}
}

func (r *reversalRepo) Create(ctx context.Context, reversal models.Reversal) error {
	now := time.Now()
	reversal.CreatedAt = now
	reversal.UpdatedAt = now
	if err := validateDoc(reversal); err != nil {
		return err
	}

	_, err := r.coll.InsertOne(ctx, reversal)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Conflict("a reversal already exists for order %s", reversal.OrderID)
	}
	if err != nil {
		return apperrors.Storage(fmt.Errorf("insert reversal: %w", err))
	}
	return nil
}

func (r *reversalRepo) GetByOrder(ctx context.Context, orderID string) (*models.Reversal, error) {
	var reversal models.Reversal
	err := r.coll.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&reversal)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("no reversal for order %s", orderID)
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("find reversal: %w", err))
	}
	return &reversal, nil
}

func (r *reversalRepo) Resolve(ctx context.Context, orderID, sellerID, status string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"order_id": orderID, "seller_id": sellerID, "status": models.ReversalStatusPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("resolve reversal: %w", err))
	}
	if res.MatchedCount == 0 {
		// Zero matches is either an absent key or a lost resolution race;
		// the caller needs to know which.
		checkErr := r.coll.FindOne(ctx, bson.M{"order_id": orderID}).Err()
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return apperrors.NotFound("no reversal for order %s", orderID)
		}
		if checkErr != nil {
			return apperrors.Storage(fmt.Errorf("check reversal: %w", checkErr))
		}
		return apperrors.Conflict("reversal for order %s is not pending", orderID)
	}
	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/pkg/mongodb"
)

// PaymentRepository is the payments collection's data access contract.
type PaymentRepository interface {
	Create(ctx context.Context, payment models.Payment) error
	GetByOrder(ctx context.Context, orderID string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, paymentID, status string) error
}

type paymentRepo struct {
	coll *mongo.Collection
}

// NewPaymentRepository returns the Mongo-backed payment repository.
func NewPaymentRepository(store *mongodb.Store) PaymentRepository {
	return &paymentRepo{coll: store.Collection("payments")}
}

func (r *paymentRepo) Create(ctx context.Context, payment models.Payment) error {
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if err := validateDoc(payment); err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return apperrors.Storage(fmt.Errorf("insert payment: %w", err))
	}
	return nil
}

func (r *paymentRepo) GetByOrder(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.coll.FindOne(ctx, bson.M{"order_id": orderID}).Decode(&payment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("payment not found for order %s", orderID)
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("find payment: %w", err))
	}
	return &payment, nil
}

// UpdateStatus moves a payment to a new status. The filter excludes payments
// already holding it, so a repeated update reports a conflict instead of
// silently rewriting the same state.
func (r *paymentRepo) UpdateStatus(ctx context.Context, paymentID, status string) error {
	oid, err := primitive.ObjectIDFromHex(paymentID)
	if err != nil {
		return apperrors.InvalidInput("invalid payment id: %s", paymentID)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": bson.M{"$ne": status}},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("update payment status: %w", err))
	}
	if res.MatchedCount == 0 {
		checkErr := r.coll.FindOne(ctx, bson.M{"_id": oid}).Err()
		if errors.Is(checkErr, mongo.ErrNoDocuments) {
			return apperrors.NotFound("payment not found: %s", paymentID)
		}
		if checkErr != nil {
			return apperrors.Storage(fmt.Errorf("check payment: %w", checkErr))
		}
		return apperrors.Conflict("payment %s is already %s", paymentID, status)
	}
	return nil
}

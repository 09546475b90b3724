package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/pkg/mongodb"
)

// OrderLogRepository appends to and reads the append-only audit trail.
type OrderLogRepository interface {
	Append(ctx context.Context, orderID, title, content string) error
	ListByOrder(ctx context.Context, orderID string) ([]models.OrderLog, error)
}

type orderLogRepo struct {
	coll *mongo.Collection
}

// NewOrderLogRepository returns the Mongo-backed order log repository.
func NewOrderLogRepository(store *mongodb.Store) OrderLogRepository {
	return &orderLogRepo{coll: store.Collection("order_log")}
}

func (r *orderLogRepo) Append(ctx context.Context, orderID, title, content string) error {
	entry := models.OrderLog{
		OrderID:   orderID,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := validateDoc(entry); err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return apperrors.Storage(fmt.Errorf("insert order log: %w", err))
	}
	return nil
}

func (r *orderLogRepo) ListByOrder(ctx context.Context, orderID string) ([]models.OrderLog, error) {
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := r.coll.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("list order log: %w", err))
	}
	defer cur.Close(ctx)

	entries := []models.OrderLog{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("decode order log: %w", err))
	}
	return entries, nil
}

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

// TopCustomer is one row of the per-seller revenue ranking served to the
// analytics service.
type TopCustomer struct {
	CustomerID  string  `bson:"customer_id" json:"customer_id"`
	TotalAmount float64 `bson:"total_amount" json:"total_amount"`
}

// OrderRepository is the orders collection's data access contract.
type OrderRepository interface {
	CreateMany(ctx context.Context, orders []models.Order) ([]string, error)
	GetByID(ctx context.Context, orderID string) (*models.Order, error)
	List(ctx context.Context, userID, role, status string) ([]models.Order, error)
	// UpdateStatus transitions an order from one status to another. The update
	// only applies while the order still holds the expected prior status, so
	// concurrent transitions resolve to exactly one winner.
	UpdateStatus(ctx context.Context, orderID, from, to string) error
	TopCustomers(ctx context.Context, sellerID string, limit int) ([]TopCustomer, error)
}

type orderRepo struct {
	coll *mongo.Collection
}

// NewOrderRepository returns the Mongo-backed order repository.
func NewOrderRepository(store *mongodb.Store) OrderRepository {
	return &orderRepo{coll: store.Collection("orders")}
}

// CreateMany inserts one order document per checkout line item and returns the
// ids in input order.
func (r *orderRepo) CreateMany(ctx context.Context, orders []models.Order) ([]string, error) {
	if len(orders) == 0 {
		return nil, apperrors.InvalidInput("no orders to create")
	}

	now := time.Now()
	docs := make([]any, len(orders))
	for i := range orders {
		orders[i].CreatedAt = now
		orders[i].UpdatedAt = now
		if err := validateDoc(orders[i]); err != nil {
			return nil, err
		}
		docs[i] = orders[i]
	}

	res, err := r.coll.InsertMany(ctx, docs)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("insert orders: %w", err))
	}

	ids := make([]string, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = id.(primitive.ObjectID).Hex()
	}
	return ids, nil
}

func (r *orderRepo) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid order id: %s", orderID)
	}

	var order models.Order
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("order not found: %s", orderID)
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("find order: %w", err))
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, userID, role, status string) ([]models.Order, error) {
	owner := "seller_id"
	if role == "customer" {
		owner = "customer_id"
	}
	filter := bson.M{owner: userID, "order_status": status}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("list orders: %w", err))
	}
	defer cur.Close(ctx)

	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("decode orders: %w", err))
	}
	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID, from, to string) error {
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return apperrors.InvalidInput("invalid order id: %s", orderID)
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "order_status": from},
		bson.M{"$set": bson.M{"order_status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return apperrors.Storage(fmt.Errorf("update order status: %w", err))
	}
	if res.MatchedCount == 0 {
		// The order exists (callers load it first) but is no longer in the
		// expected status: another transition won.
		return apperrors.Conflict("order %s is no longer %s", orderID, from)
	}
	return nil
}

// TopCustomers ranks a seller's customers by accepted-order revenue. Served
// over the broker to the analytics service.
func (r *orderRepo) TopCustomers(ctx context.Context, sellerID string, limit int) ([]TopCustomer, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"seller_id": sellerID, "order_status": models.OrderStatusAccepted}}},
		{{Key: "$group", Value: bson.M{"_id": "$customer_id", "total_amount": bson.M{"$sum": "$total_amount"}}}},
		{{Key: "$sort", Value: bson.M{"total_amount": -1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"customer_id": "$_id", "total_amount": 1, "_id": 0}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Storage(fmt.Errorf("aggregate top customers: %w", err))
	}
	defer cur.Close(ctx)

	rows := []TopCustomer{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperrors.Storage(fmt.Errorf("decode top customers: %w", err))
	}
	return rows, nil
}

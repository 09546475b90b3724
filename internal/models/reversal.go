package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reversal status values. A reversal is resolved at most once; the transition
// out of pending is guarded by a conditional update.
const (
	ReversalStatusPending  = "pending"
	ReversalStatusAccepted = "accepted"
	ReversalStatusRefused  = "refused"
)

// Reversal is a customer-requested return tied to one order. At most one
// reversal exists per order.
type Reversal struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    string             `bson:"order_id" json:"order_id" validate:"required"`
	CustomerID string             `bson:"customer_id" json:"customer_id" validate:"required"`
	SellerID   string             `bson:"seller_id" json:"seller_id" validate:"required"`
	Reason     string             `bson:"reason" json:"reason" validate:"required"`
	Status     string             `bson:"status" json:"status" validate:"required,oneof=pending accepted refused"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

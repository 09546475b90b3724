package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order status values. Orders are created pending and move to exactly one
// terminal status.
const (
	OrderStatusPending   = "pending"
	OrderStatusAccepted  = "accepted"
	OrderStatusRefused   = "refused"
	OrderStatusCancelled = "cancelled"
	OrderStatusReversed  = "reversed"
)

// Order is one line of a checkout: a single checkout request fans out into one
// order document per (product_id, sku) item.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID       string             `bson:"product_id" json:"product_id" validate:"required"`
	SellerID        string             `bson:"seller_id" json:"seller_id" validate:"required"`
	CustomerID      string             `bson:"customer_id" json:"customer_id" validate:"required"`
	SKU             string             `bson:"sku" json:"sku" validate:"required"`
	Quantity        int                `bson:"quantity" json:"quantity" validate:"required,min=1"`
	ShippingFee     float64            `bson:"shipping_fee" json:"shipping_fee" validate:"gte=0"`
	ShippingAddress string             `bson:"shipping_address" json:"shipping_address" validate:"required"`
	TotalAmount     float64            `bson:"total_amount" json:"total_amount" validate:"gte=0"`
	OrderStatus     string             `bson:"order_status" json:"order_status" validate:"required,oneof=pending accepted refused cancelled reversed"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

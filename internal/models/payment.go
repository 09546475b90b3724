package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment method and status vocabularies.
const (
	PaymentMethodPrepaid  = "prepaid"
	PaymentMethodPostpaid = "postpaid"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Payment is created atomically with its order, one per order.
type Payment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID    string             `bson:"order_id" json:"order_id" validate:"required"`
	CustomerID string             `bson:"customer_id" json:"customer_id" validate:"required"`
	SellerID   string             `bson:"seller_id" json:"seller_id" validate:"required"`
	Method     string             `bson:"method" json:"method" validate:"required,oneof=prepaid postpaid"`
	Status     string             `bson:"status" json:"status" validate:"required,oneof=unpaid paid"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

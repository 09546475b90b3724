package models

import "time"

// Wishlist is one document per customer holding a set of product ids.
type Wishlist struct {
	CustomerID string    `bson:"customer_id" json:"customer_id"`
	Wishlist   []string  `bson:"wishlist" json:"wishlist"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

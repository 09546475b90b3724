package models

import "time"

// CartItem is one line in a customer's cart. A cart holds at most one item per
// product_id.
type CartItem struct {
	ProductID   string `bson:"product_id" json:"product_id" validate:"required"`
	Quantity    int    `bson:"quantity" json:"quantity" validate:"required,min=1"`
	SelectedSKU string `bson:"selected_sku" json:"selected_sku" validate:"required"`
}

// Cart is the single cart document owned by one customer. Checkout clears the
// purchased items but never deletes the document.
type Cart struct {
	CustomerID string     `bson:"customer_id" json:"customer_id"`
	Items      []CartItem `bson:"items" json:"items"`
	CreatedAt  time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at" json:"updated_at"`
}

package models

import "time"

// Payloads exchanged with sibling services over the broker. These mirror the
// contracts the catalog, user and notification services expose; this service
// never persists them.

// Variant is one purchasable SKU of a product, with its own price and stock.
type Variant struct {
	SKU     string  `json:"sku"`
	Variant string  `json:"variant"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
}

// Product is the catalog service's product record.
type Product struct {
	ID       string    `json:"_id"`
	Name     string    `json:"name"`
	SellerID string    `json:"seller_id"`
	Images   []string  `json:"images"`
	Address  string    `json:"address"`
	Origin   string    `json:"origin"`
	Variants []Variant `json:"variants"`
}

// VariantBySKU finds the variant matching the given sku, if any.
func (p *Product) VariantBySKU(sku string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}

// User is the user service's record, fetched for order enrichment.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// NotificationPreference holds the per-user flags gating outbound
// notifications. A zero value suppresses everything.
type NotificationPreference struct {
	OrderCreated     bool `json:"order_created"`
	OrderAccepted    bool `json:"order_accepted"`
	OrderRefused     bool `json:"order_refused"`
	OrderCancelled   bool `json:"order_cancelled"`
	ReversalCreated  bool `json:"reversal_created"`
	ReversalResolved bool `json:"reversal_resolved"`
}

// Notification is the payload published to the notification service.
type Notification struct {
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	NotificationType string    `json:"notification_type"`
	TargetType       string    `json:"target_type"`
	TargetIDs        []string  `json:"target_ids"`
	CanDelete        bool      `json:"can_delete"`
	CanMarkAsRead    bool      `json:"can_mark_as_read"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// Package producers wraps the broker client with the typed calls this service
// makes into sibling services: catalog, user, notification and analytics.
package producers

import (
	"context"
	"time"

	"github.com/KhanhRomVN/saleso-order-service/internal/models"
)

// Queue names shared with sibling services.
const (
	GetProductByIDQueue        = "get_product_by_id_queue"
	UpdateStockQueue           = "update_stock_queue"
	GetVariantBySKUQueue       = "get_variant_by_sku_queue"
	GetUserByIDQueue           = "get_user_by_id_queue"
	GetNotificationPrefQueue   = "get_allow_notification_preference_queue"
	CreateNotificationQueue    = "create_notification_queue"
	UpdateProductAnalyticQueue = "update_product_analytic_queue"
	TopCustomersAnalyticQueue  = "top5_customer_analytic_queue"
)

const defaultCallTimeout = 5 * time.Second

// Broker is the transport surface producers need: a blocking call with a
// correlated reply, and a fire-and-forget publish.
type Broker interface {
	Call(ctx context.Context, queue string, req, reply any) error
	Notify(ctx context.Context, queue string, payload any) error
}

// Gateway is the outbound contract the services program against.
type Gateway interface {
	GetProductByID(ctx context.Context, productID string) (*models.Product, error)
	UpdateStock(ctx context.Context, productID string, delta int, sku string) error
	GetVariantBySKU(ctx context.Context, sku string) (*models.Variant, error)
	GetUserByID(ctx context.Context, userID, role string) (*models.User, error)
	GetNotificationPreference(ctx context.Context, userID string) (*models.NotificationPreference, error)
	CreateNotification(ctx context.Context, n models.Notification) error
	UpdateProductAnalytic(ctx context.Context, productID, key string, value float64) error
}

// Producers implements Gateway over a broker client, applying a per-call
// timeout so no remote read can block a saga indefinitely.
type Producers struct {
	broker  Broker
	timeout time.Duration
}

// New builds the producer set. A non-positive timeout falls back to the
// default.
func New(broker Broker, timeout time.Duration) *Producers {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &Producers{broker: broker, timeout: timeout}
}

func (p *Producers) call(ctx context.Context, queue string, req, reply any) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.broker.Call(ctx, queue, req, reply)
}

func (p *Producers) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	req := map[string]string{"product_id": productID}
	var product models.Product
	if err := p.call(ctx, GetProductByIDQueue, req, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateStock adjusts the remote stock for one sku. Negative delta reserves,
// positive delta returns stock (compensation and reversal acceptance).
func (p *Producers) UpdateStock(ctx context.Context, productID string, delta int, sku string) error {
	req := map[string]any{"product_id": productID, "delta": delta, "sku": sku}
	return p.call(ctx, UpdateStockQueue, req, nil)
}

func (p *Producers) GetVariantBySKU(ctx context.Context, sku string) (*models.Variant, error) {
	req := map[string]string{"sku": sku}
	var variant models.Variant
	if err := p.call(ctx, GetVariantBySKUQueue, req, &variant); err != nil {
		return nil, err
	}
	return &variant, nil
}

func (p *Producers) GetUserByID(ctx context.Context, userID, role string) (*models.User, error) {
	req := map[string]string{"user_id": userID, "role": role}
	var user models.User
	if err := p.call(ctx, GetUserByIDQueue, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (p *Producers) GetNotificationPreference(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	req := map[string]string{"user_id": userID}
	var pref models.NotificationPreference
	if err := p.call(ctx, GetNotificationPrefQueue, req, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

func (p *Producers) CreateNotification(ctx context.Context, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return p.broker.Notify(ctx, CreateNotificationQueue, n)
}

func (p *Producers) UpdateProductAnalytic(ctx context.Context, productID, key string, value float64) error {
	payload := map[string]any{"product_id": productID, "key": key, "value": value}
	return p.broker.Notify(ctx, UpdateProductAnalyticQueue, payload)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
)

// compensationTimeout bounds the stock-increment calls issued when a checkout
// fails after reservations. They run on a detached context so a cancelled
// request still compensates.
const compensationTimeout = 30 * time.Second

// TxRunner runs a function inside one local store transaction.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error
}

// OrderItemRequest is one line of a checkout request.
type OrderItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	SKU       string `json:"sku"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest `json:"order_items"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	ShippingAddress string             `json:"shipping_address"`
	ShippingFee     float64            `json:"shipping_fee"`
}

// OrderDetail aggregates an order with its log, payment and remote records.
type OrderDetail struct {
	Order    *models.Order      `json:"order"`
	Logs     []models.OrderLog  `json:"logs"`
	Payment  *models.Payment    `json:"payment"`
	Product  *models.Product    `json:"product,omitempty"`
	Customer *models.User       `json:"customer,omitempty"`
}

// OrderSummary is one row of an order listing, enriched over RPC.
type OrderSummary struct {
	Order            models.Order `json:"order"`
	ProductName      string       `json:"product_name,omitempty"`
	ProductImage     string       `json:"product_image,omitempty"`
	ProductAddress   string       `json:"product_address,omitempty"`
	SKUName          string       `json:"sku_name,omitempty"`
	CustomerUsername string       `json:"customer_username,omitempty"`
	ReversalReason   string       `json:"reversal_reason,omitempty"`
	ReversalStatus   string       `json:"reversal_status,omitempty"`
}

// OrderService coordinates checkout as a saga across the catalog service and
// the local store, plus the single-order status transitions.
type OrderService struct {
	store     TxRunner
	orders    repositories.OrderRepository
	payments  repositories.PaymentRepository
	orderLogs repositories.OrderLogRepository
	carts     repositories.CartRepository
	reversals repositories.ReversalRepository
	gateway   producers.Gateway
	notifier  *notifier
	log       *slog.Logger

	sideEffects sync.WaitGroup
}

// NewOrderService wires the saga orchestrator.
func NewOrderService(
	store TxRunner,
	orders repositories.OrderRepository,
	payments repositories.PaymentRepository,
	orderLogs repositories.OrderLogRepository,
	carts repositories.CartRepository,
	reversals repositories.ReversalRepository,
	gateway producers.Gateway,
	log *slog.Logger,
) *OrderService {
	if log == nil {
		log = slog.Default()
	}
	return &OrderService{
		store:     store,
		orders:    orders,
		payments:  payments,
		orderLogs: orderLogs,
		carts:     carts,
		reversals: reversals,
		gateway:   gateway,
		notifier:  &notifier{gateway: gateway, log: log},
		log:       log,
	}
}

// Drain blocks until all in-flight post-commit side effects have finished.
// Called during shutdown so committed orders still get their notifications.
func (s *OrderService) Drain() { s.sideEffects.Wait() }

// resolvedItem pairs a requested line with its authoritative catalog state.
type resolvedItem struct {
	req     OrderItemRequest
	product *models.Product
	variant *models.Variant
}

// CreateOrder runs the checkout saga and returns the created order ids.
// Either every line item becomes an order or none does.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, req CreateOrderRequest) ([]string, error) {
	if err := validateCreateOrder(customerID, req); err != nil {
		return nil, err
	}

	resolved, err := s.resolveItems(ctx, req.OrderItems)
	if err != nil {
		return nil, err
	}

	reserved, err := s.reserveStock(ctx, resolved)
	if err != nil {
		s.compensate(ctx, reserved)
		return nil, err
	}

	orders := make([]models.Order, len(resolved))
	productIDs := make([]string, len(resolved))
	for i, item := range resolved {
		orders[i] = models.Order{
			ProductID:       item.req.ProductID,
			SellerID:        item.product.SellerID,
			CustomerID:      customerID,
			SKU:             item.req.SKU,
			Quantity:        item.req.Quantity,
			ShippingFee:     req.ShippingFee,
			ShippingAddress: req.ShippingAddress,
			TotalAmount:     item.variant.Price*float64(item.req.Quantity) + req.ShippingFee,
			OrderStatus:     models.OrderStatusPending,
		}
		productIDs[i] = item.req.ProductID
	}

	var orderIDs []string
	err = s.store.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		ids, err := s.orders.CreateMany(sc, orders)
		if err != nil {
			return err
		}
		orderIDs = ids

		for i, id := range ids {
			payment := models.Payment{
				OrderID:    id,
				CustomerID: customerID,
				SellerID:   orders[i].SellerID,
				Method:     req.PaymentMethod,
				Status:     req.PaymentStatus,
			}
			if err := s.payments.Create(sc, payment); err != nil {
				return err
			}
			if err := s.orderLogs.Append(sc, id, "Order created", "Order created successfully"); err != nil {
				return err
			}
		}

		return s.carts.RemoveItems(sc, customerID, productIDs)
	})
	if err != nil {
		// The store rolled the local writes back; the remote decrements
		// remain and must be undone before reporting the original failure.
		s.compensate(ctx, reserved)
		return nil, err
	}

	s.sideEffects.Add(1)
	go func(ctx context.Context) {
		defer s.sideEffects.Done()
		s.afterCheckout(ctx, orders, orderIDs)
	}(context.WithoutCancel(ctx))

	return orderIDs, nil
}

func validateCreateOrder(customerID string, req CreateOrderRequest) error {
	if customerID == "" {
		return apperrors.InvalidInput("customer id is required")
	}
	if len(req.OrderItems) == 0 {
		return apperrors.InvalidInput("order items must not be empty")
	}
	if req.PaymentMethod != models.PaymentMethodPrepaid && req.PaymentMethod != models.PaymentMethodPostpaid {
		return apperrors.InvalidInput("invalid payment method: %s", req.PaymentMethod)
	}
	if req.PaymentStatus != models.PaymentStatusUnpaid && req.PaymentStatus != models.PaymentStatusPaid {
		return apperrors.InvalidInput("invalid payment status: %s", req.PaymentStatus)
	}
	if req.ShippingAddress == "" {
		return apperrors.InvalidInput("shipping address is required")
	}
	if req.ShippingFee < 0 {
		return apperrors.InvalidInput("shipping fee must not be negative")
	}

	seen := make(map[string]bool, len(req.OrderItems))
	for _, item := range req.OrderItems {
		if item.ProductID == "" || item.SKU == "" {
			return apperrors.InvalidInput("order item is missing product_id or sku")
		}
		if item.Quantity < 1 {
			return apperrors.InvalidInput("quantity for product %s must be at least 1", item.ProductID)
		}
		if seen[item.ProductID] {
			return apperrors.InvalidInput("duplicate order item for product %s", item.ProductID)
		}
		seen[item.ProductID] = true
	}
	return nil
}

// resolveItems fetches the authoritative product for every line concurrently.
// Any missing product or variant, or shortfall in stock, fails the whole
// checkout before anything is written or reserved.
func (s *OrderService) resolveItems(ctx context.Context, items []OrderItemRequest) ([]resolvedItem, error) {
	resolved := make([]resolvedItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			product, err := s.gateway.GetProductByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, &apperrors.Error{Code: apperrors.CodeRemote}) {
					return apperrors.ProductNotFound(item.ProductID)
				}
				return err
			}
			variant := product.VariantBySKU(item.SKU)
			if variant == nil {
				return apperrors.VariantNotFound(item.ProductID, item.SKU)
			}
			if variant.Stock < item.Quantity {
				return apperrors.InsufficientStock(item.ProductID, item.Quantity, variant.Stock)
			}
			resolved[i] = resolvedItem{req: item, product: product, variant: variant}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

// reserveStock issues concurrent stock decrements, returning the items whose
// decrement succeeded regardless of the overall outcome so the caller can
// compensate them.
func (s *OrderService) reserveStock(ctx context.Context, resolved []resolvedItem) ([]resolvedItem, error) {
	var mu sync.Mutex
	reserved := make([]resolvedItem, 0, len(resolved))

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range resolved {
		item := item
		g.Go(func() error {
			if err := s.gateway.UpdateStock(gctx, item.req.ProductID, -item.req.Quantity, item.req.SKU); err != nil {
				return err
			}
			mu.Lock()
			reserved = append(reserved, item)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return reserved, err
}

// compensate re-increments stock for every successful reservation. It runs on
// a detached context: the customer may already be gone, the inventory must
// still be made whole. Failures are logged as an alertable condition; the
// user-visible error stays the original one.
func (s *OrderService) compensate(ctx context.Context, reserved []resolvedItem) {
	if len(reserved) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for _, item := range reserved {
		if err := s.gateway.UpdateStock(cctx, item.req.ProductID, item.req.Quantity, item.req.SKU); err != nil {
			s.log.Error("stock compensation failed",
				"code", apperrors.CodeCompensationFailed,
				"product_id", item.req.ProductID,
				"sku", item.req.SKU,
				"quantity", item.req.Quantity,
				"error", err)
		}
	}
}

// afterCheckout fires the post-commit side effects: per-item analytics and a
// preference-gated notification to each seller. Best-effort only.
func (s *OrderService) afterCheckout(ctx context.Context, orders []models.Order, orderIDs []string) {
	for _, order := range orders {
		s.notifier.analytic(ctx, order.ProductID, "orders_placed", 1)
	}
	for i, order := range orders {
		s.notifier.send(ctx, order.SellerID,
			func(p models.NotificationPreference) bool { return p.OrderCreated },
			"You have new order",
			fmt.Sprintf("You have new order with order id %s", orderIDs[i]))
	}
}

// AcceptOrder transitions a pending order to accepted on behalf of its seller.
func (s *OrderService) AcceptOrder(ctx context.Context, sellerID, orderID string) error {
	return s.transition(ctx, orderID, transitionSpec{
		actorID:    sellerID,
		actorField: actorSeller,
		to:         models.OrderStatusAccepted,
		logTitle:   "Order accepted",
		logContent: "Order accepted successfully",
		after: func(ctx context.Context, order *models.Order) {
			s.notifier.analytic(ctx, order.ProductID, "order_successful", 1)
			s.notifier.analytic(ctx, order.ProductID, "revenue", order.TotalAmount)
			s.notifier.send(ctx, order.CustomerID,
				func(p models.NotificationPreference) bool { return p.OrderAccepted },
				"Order accepted",
				fmt.Sprintf("Order %s has been accepted by the seller", orderID))
		},
	})
}

// RefuseOrder transitions a pending order to refused on behalf of its seller.
func (s *OrderService) RefuseOrder(ctx context.Context, sellerID, orderID string) error {
	return s.transition(ctx, orderID, transitionSpec{
		actorID:    sellerID,
		actorField: actorSeller,
		to:         models.OrderStatusRefused,
		logTitle:   "Order refused",
		logContent: "Order refused successfully",
		after: func(ctx context.Context, order *models.Order) {
			s.notifier.analytic(ctx, order.ProductID, "order_failed", 1)
			s.notifier.send(ctx, order.CustomerID,
				func(p models.NotificationPreference) bool { return p.OrderRefused },
				"Order refused",
				fmt.Sprintf("Order %s has been refused by the seller", orderID))
		},
	})
}

// CancelOrder transitions a pending order to cancelled on behalf of its
// customer.
func (s *OrderService) CancelOrder(ctx context.Context, customerID, orderID string) error {
	return s.transition(ctx, orderID, transitionSpec{
		actorID:    customerID,
		actorField: actorCustomer,
		to:         models.OrderStatusCancelled,
		logTitle:   "Order cancelled",
		logContent: "Order cancelled successfully",
		after: func(ctx context.Context, order *models.Order) {
			s.notifier.analytic(ctx, order.ProductID, "order_refused", 1)
			s.notifier.send(ctx, order.SellerID,
				func(p models.NotificationPreference) bool { return p.OrderCancelled },
				"Order cancelled",
				fmt.Sprintf("Customer %s has cancelled the order", customerID))
		},
	})
}

type actorField int

const (
	actorCustomer actorField = iota
	actorSeller
)

type transitionSpec struct {
	actorID    string
	actorField actorField
	to         string
	logTitle   string
	logContent string
	after      func(ctx context.Context, order *models.Order)
}

// transition performs a single-order status change: ownership check,
// conditional pending-to-terminal update, audit log, then detached side
// effects. Concurrent transitions on the same order resolve to one winner;
// the loser observes a conflict and writes nothing further.
func (s *OrderService) transition(ctx context.Context, orderID string, spec transitionSpec) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	owner := order.SellerID
	if spec.actorField == actorCustomer {
		owner = order.CustomerID
	}
	if owner != spec.actorID {
		return apperrors.Forbidden("order %s does not belong to this actor", orderID)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, models.OrderStatusPending, spec.to); err != nil {
		return err
	}

	if err := s.orderLogs.Append(ctx, orderID, spec.logTitle, spec.logContent); err != nil {
		// The transition is committed; a missing audit row is logged, not
		// surfaced as a failed operation.
		s.log.Error("order log append failed", "order_id", orderID, "error", err)
	}

	s.sideEffects.Add(1)
	go func(ctx context.Context) {
		defer s.sideEffects.Done()
		spec.after(ctx, order)
	}(context.WithoutCancel(ctx))

	return nil
}

// GetOrder returns an order with its audit log, payment and remote records.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{Order: order}

	if detail.Logs, err = s.orderLogs.ListByOrder(ctx, orderID); err != nil {
		return nil, err
	}
	if detail.Payment, err = s.payments.GetByOrder(ctx, orderID); err != nil {
		return nil, err
	}

	if product, err := s.gateway.GetProductByID(ctx, order.ProductID); err == nil {
		detail.Product = product
	} else {
		s.log.Warn("product enrichment failed", "product_id", order.ProductID, "error", err)
	}
	if customer, err := s.gateway.GetUserByID(ctx, order.CustomerID, "customer"); err == nil {
		detail.Customer = customer
	} else {
		s.log.Warn("customer enrichment failed", "customer_id", order.CustomerID, "error", err)
	}

	return detail, nil
}

// CompletePayment marks the order's payment as paid on behalf of its
// customer. Paying an already-paid order is a conflict.
func (s *OrderService) CompletePayment(ctx context.Context, customerID, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.CustomerID != customerID {
		return apperrors.Forbidden("order %s does not belong to this customer", orderID)
	}

	payment, err := s.payments.GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.payments.UpdateStatus(ctx, payment.ID.Hex(), models.PaymentStatusPaid); err != nil {
		return err
	}

	if err := s.orderLogs.Append(ctx, orderID, "Payment completed", "Payment marked as paid"); err != nil {
		s.log.Error("order log append failed", "order_id", orderID, "error", err)
	}
	return nil
}

// ListOrderLogs returns the audit trail of an order, oldest entry first.
func (s *OrderService) ListOrderLogs(ctx context.Context, orderID string) ([]models.OrderLog, error) {
	return s.orderLogs.ListByOrder(ctx, orderID)
}

// ListOrders returns the actor's orders in the given status, enriched with
// catalog and user data. Enrichment failures degrade to bare rows.
func (s *OrderService) ListOrders(ctx context.Context, userID, role, status string) ([]OrderSummary, error) {
	orders, err := s.orders.List(ctx, userID, role, status)
	if err != nil {
		return nil, err
	}

	summaries := make([]OrderSummary, len(orders))
	for i, order := range orders {
		summary := OrderSummary{Order: order}

		if product, err := s.gateway.GetProductByID(ctx, order.ProductID); err == nil {
			summary.ProductName = product.Name
			if len(product.Images) > 0 {
				summary.ProductImage = product.Images[0]
			}
			if role == "customer" {
				summary.ProductAddress = product.Address
			}
		}

		if role == "seller" {
			if customer, err := s.gateway.GetUserByID(ctx, order.CustomerID, "customer"); err == nil {
				summary.CustomerUsername = customer.Username
			}
		} else {
			if variant, err := s.gateway.GetVariantBySKU(ctx, order.SKU); err == nil {
				summary.SKUName = variant.Variant
			}
		}

		if status == models.OrderStatusReversed {
			if reversal, err := s.reversals.GetByOrder(ctx, order.ID.Hex()); err == nil {
				summary.ReversalReason = reversal.Reason
				summary.ReversalStatus = reversal.Status
			}
		}

		summaries[i] = summary
	}
	return summaries, nil
}

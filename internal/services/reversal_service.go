package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/producers"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
)

// ReversalService runs the return/refund workflow: a customer opens a
// reversal against an order, the seller resolves it, and acceptance returns
// the reserved stock to the catalog.
type ReversalService struct {
	store     TxRunner
	orders    repositories.OrderRepository
	reversals repositories.ReversalRepository
	orderLogs repositories.OrderLogRepository
	gateway   producers.Gateway
	notifier  *notifier
	log       *slog.Logger

	sideEffects sync.WaitGroup
}

// NewReversalService wires the reversal workflow.
func NewReversalService(
	store TxRunner,
	orders repositories.OrderRepository,
	reversals repositories.ReversalRepository,
	orderLogs repositories.OrderLogRepository,
	gateway producers.Gateway,
	log *slog.Logger,
) *ReversalService {
	if log == nil {
		log = slog.Default()
	}
	return &ReversalService{
		store:     store,
		orders:    orders,
		reversals: reversals,
		orderLogs: orderLogs,
		gateway:   gateway,
		notifier:  &notifier{gateway: gateway, log: log},
		log:       log,
	}
}

// Drain blocks until all in-flight post-commit side effects have finished.
func (s *ReversalService) Drain() { s.sideEffects.Wait() }

// detach runs fn on a context that survives the request, so a caller
// cancelling right after commit cannot skip the stock return or the
// notification.
func (s *ReversalService) detach(ctx context.Context, fn func(ctx context.Context)) {
	s.sideEffects.Add(1)
	go func(ctx context.Context) {
		defer s.sideEffects.Done()
		fn(ctx)
	}(context.WithoutCancel(ctx))
}

// CreateReversal opens a pending reversal for the customer's order. A second
// reversal on the same order is a conflict.
func (s *ReversalService) CreateReversal(ctx context.Context, customerID, orderID, reason string) (*models.Reversal, error) {
	if reason == "" {
		return nil, apperrors.InvalidInput("reversal reason is required")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperrors.Forbidden("order %s does not belong to this customer", orderID)
	}

	reversal := models.Reversal{
		OrderID:    orderID,
		CustomerID: order.CustomerID,
		SellerID:   order.SellerID,
		Reason:     reason,
		Status:     models.ReversalStatusPending,
	}
	if err := s.reversals.Create(ctx, reversal); err != nil {
		return nil, err
	}

	if err := s.orderLogs.Append(ctx, orderID, "Reversal requested", reason); err != nil {
		s.log.Error("order log append failed", "order_id", orderID, "error", err)
	}

	s.detach(ctx, func(ctx context.Context) {
		s.notifier.send(ctx, order.SellerID,
			func(p models.NotificationPreference) bool { return p.ReversalCreated },
			"Reversal requested",
			fmt.Sprintf("Customer requested a reversal for order %s", orderID))
	})

	return &reversal, nil
}

// AcceptReversal resolves a pending reversal in the customer's favor: the
// reversal becomes accepted and the parent order reversed in one local
// transaction, then the reserved stock is returned to the catalog. Two racing
// accepts resolve to exactly one winner; the loser gets a conflict.
func (s *ReversalService) AcceptReversal(ctx context.Context, sellerID, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SellerID != sellerID {
		return apperrors.Forbidden("order %s does not belong to this seller", orderID)
	}

	err = s.store.WithTransaction(ctx, func(sc mongo.SessionContext) error {
		if err := s.reversals.Resolve(sc, orderID, sellerID, models.ReversalStatusAccepted); err != nil {
			return err
		}
		if err := s.orders.UpdateStatus(sc, orderID, order.OrderStatus, models.OrderStatusReversed); err != nil {
			return err
		}
		return s.orderLogs.Append(sc, orderID, "Reversal accepted", "Reversal accepted and stock returned")
	})
	if err != nil {
		return err
	}

	// The reversal is committed; returning stock uses the same RPC as saga
	// compensation, and a failure here is alertable but does not un-accept.
	s.detach(ctx, func(ctx context.Context) {
		cctx, cancel := context.WithTimeout(ctx, compensationTimeout)
		defer cancel()
		if err := s.gateway.UpdateStock(cctx, order.ProductID, order.Quantity, order.SKU); err != nil {
			s.log.Error("stock return failed",
				"code", apperrors.CodeCompensationFailed,
				"order_id", orderID,
				"product_id", order.ProductID,
				"quantity", order.Quantity,
				"error", err)
		}

		s.notifier.send(ctx, order.CustomerID,
			func(p models.NotificationPreference) bool { return p.ReversalResolved },
			"Reversal accepted",
			fmt.Sprintf("Your reversal for order %s has been accepted", orderID))
	})

	return nil
}

// RefuseReversal resolves a pending reversal against the customer. The order
// keeps its status and no stock moves.
func (s *ReversalService) RefuseReversal(ctx context.Context, sellerID, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SellerID != sellerID {
		return apperrors.Forbidden("order %s does not belong to this seller", orderID)
	}

	if err := s.reversals.Resolve(ctx, orderID, sellerID, models.ReversalStatusRefused); err != nil {
		return err
	}

	if err := s.orderLogs.Append(ctx, orderID, "Reversal refused", "Reversal refused by seller"); err != nil {
		s.log.Error("order log append failed", "order_id", orderID, "error", err)
	}

	s.detach(ctx, func(ctx context.Context) {
		s.notifier.send(ctx, order.CustomerID,
			func(p models.NotificationPreference) bool { return p.ReversalResolved },
			"Reversal refused",
			fmt.Sprintf("Your reversal for order %s has been refused", orderID))
	})

	return nil
}

// GetReversal returns the reversal attached to an order.
func (s *ReversalService) GetReversal(ctx context.Context, orderID string) (*models.Reversal, error) {
	return s.reversals.GetByOrder(ctx, orderID)
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
)

type reversalServiceFixture struct {
	orders    *mockOrderRepo
	reversals *mockReversalRepo
	orderLogs *mockOrderLogRepo
	gateway   *mockGateway
	service   *ReversalService
}

func newReversalServiceFixture() *reversalServiceFixture {
	f := &reversalServiceFixture{
		orders:    new(mockOrderRepo),
		reversals: new(mockReversalRepo),
		orderLogs: new(mockOrderLogRepo),
		gateway:   new(mockGateway),
	}
	f.service = NewReversalService(&stubTx{}, f.orders, f.reversals, f.orderLogs, f.gateway, nil)
	return f
}

func acceptedOrder(orderID primitive.ObjectID) *models.Order {
	return &models.Order{
		ID:          orderID,
		ProductID:   "p1",
		SellerID:    "seller-1",
		CustomerID:  "cust-1",
		SKU:         "p1-red",
		Quantity:    3,
		OrderStatus: models.OrderStatusAccepted,
	}
}

func TestCreateReversal(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Create", mock.Anything, mock.MatchedBy(func(r models.Reversal) bool {
		return r.OrderID == oid.Hex() &&
			r.Status == models.ReversalStatusPending &&
			r.Reason == "damaged on arrival"
	})).Return(nil)
	f.orderLogs.On("Append", mock.Anything, oid.Hex(), "Reversal requested", "damaged on arrival").Return(nil)
	f.gateway.On("GetNotificationPreference", mock.Anything, "seller-1").
		Return(&models.NotificationPreference{ReversalCreated: true}, nil)
	f.gateway.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.TargetIDs[0] == "seller-1"
	})).Return(nil)

	reversal, err := f.service.CreateReversal(context.Background(), "cust-1", oid.Hex(), "damaged on arrival")
	f.service.Drain()

	require.NoError(t, err)
	assert.Equal(t, models.ReversalStatusPending, reversal.Status)
	f.reversals.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestCreateReversalRequiresReason(t *testing.T) {
	f := newReversalServiceFixture()

	_, err := f.service.CreateReversal(context.Background(), "cust-1", "some-order", "")

	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
	f.orders.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCreateReversalForbidden(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)

	_, err := f.service.CreateReversal(context.Background(), "someone-else", oid.Hex(), "changed my mind")

	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
	f.reversals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateReversalDuplicate(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.Conflict("reversal already exists for order %s", oid.Hex()))

	_, err := f.service.CreateReversal(context.Background(), "cust-1", oid.Hex(), "damaged")

	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	f.gateway.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}

func TestAcceptReversal(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Resolve", mock.Anything, oid.Hex(), "seller-1", models.ReversalStatusAccepted).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, oid.Hex(), models.OrderStatusAccepted, models.OrderStatusReversed).Return(nil)
	f.orderLogs.On("Append", mock.Anything, oid.Hex(), "Reversal accepted", mock.Anything).Return(nil)

	// Stock goes back by the full ordered quantity, once.
	f.gateway.On("UpdateStock", mock.Anything, "p1", 3, "p1-red").Return(nil).Once()
	f.gateway.On("GetNotificationPreference", mock.Anything, "cust-1").
		Return(&models.NotificationPreference{ReversalResolved: true}, nil)
	f.gateway.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Title == "Reversal accepted" && n.TargetIDs[0] == "cust-1"
	})).Return(nil)

	err := f.service.AcceptReversal(context.Background(), "seller-1", oid.Hex())
	f.service.Drain()

	require.NoError(t, err)
	f.reversals.AssertExpectations(t)
	f.orders.AssertExpectations(t)
	f.gateway.AssertExpectations(t)
}

func TestAcceptReversalStockReturnSurvivesCancellation(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Resolve", mock.Anything, oid.Hex(), "seller-1", models.ReversalStatusAccepted).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, oid.Hex(), models.OrderStatusAccepted, models.OrderStatusReversed).Return(nil)
	f.orderLogs.On("Append", mock.Anything, oid.Hex(), "Reversal accepted", mock.Anything).Return(nil)

	// The stock return must arrive on a live context even when the caller is
	// already gone.
	liveCtx := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	f.gateway.On("UpdateStock", liveCtx, "p1", 3, "p1-red").Return(nil).Once()
	f.gateway.On("GetNotificationPreference", mock.Anything, "cust-1").
		Return(&models.NotificationPreference{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := f.service.AcceptReversal(ctx, "seller-1", oid.Hex())
	f.service.Drain()

	require.NoError(t, err)
	f.gateway.AssertCalled(t, "UpdateStock", liveCtx, "p1", 3, "p1-red")
}

func TestAcceptReversalAlreadyResolved(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Resolve", mock.Anything, oid.Hex(), "seller-1", models.ReversalStatusAccepted).
		Return(apperrors.Conflict("reversal for order %s is not pending", oid.Hex()))

	err := f.service.AcceptReversal(context.Background(), "seller-1", oid.Hex())

	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	f.gateway.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAcceptReversalStockReturnFailureDoesNotUnaccept(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Resolve", mock.Anything, oid.Hex(), "seller-1", models.ReversalStatusAccepted).Return(nil)
	f.orders.On("UpdateStatus", mock.Anything, oid.Hex(), models.OrderStatusAccepted, models.OrderStatusReversed).Return(nil)
	f.orderLogs.On("Append", mock.Anything, oid.Hex(), "Reversal accepted", mock.Anything).Return(nil)

	f.gateway.On("UpdateStock", mock.Anything, "p1", 3, "p1-red").
		Return(apperrors.Timeout("update_stock_queue"))
	f.gateway.On("GetNotificationPreference", mock.Anything, "cust-1").
		Return(&models.NotificationPreference{ReversalResolved: true}, nil)
	f.gateway.On("CreateNotification", mock.Anything, mock.Anything).Return(nil)

	err := f.service.AcceptReversal(context.Background(), "seller-1", oid.Hex())
	f.service.Drain()

	require.NoError(t, err)
}

func TestRefuseReversal(t *testing.T) {
	f := newReversalServiceFixture()

	oid := primitive.NewObjectID()
	f.orders.On("GetByID", mock.Anything, oid.Hex()).Return(acceptedOrder(oid), nil)
	f.reversals.On("Resolve", mock.Anything, oid.Hex(), "seller-1", models.ReversalStatusRefused).Return(nil)
	f.orderLogs.On("Append", mock.Anything, oid.Hex(), "Reversal refused", mock.Anything).Return(nil)
	f.gateway.On("GetNotificationPreference", mock.Anything, "cust-1").
		Return(&models.NotificationPreference{ReversalResolved: true}, nil)
	f.gateway.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Title == "Reversal refused"
	})).Return(nil)

	err := f.service.RefuseReversal(context.Background(), "seller-1", oid.Hex())
	f.service.Drain()

	require.NoError(t, err)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.gateway.AssertNotCalled(t, "UpdateStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

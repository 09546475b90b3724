package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/repositories"
)

// fakeSessionContext satisfies mongo.SessionContext for tests. The embedded
// Session is nil; repositories are mocked, so session methods are never hit.
type fakeSessionContext struct {
	context.Context
	mongo.Session
}

// stubTx runs the transaction body immediately on a fake session context,
// or fails without running it when err is set.
type stubTx struct {
	err error
}

func (s *stubTx) WithTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(fakeSessionContext{Context: ctx})
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) CreateMany(ctx context.Context, orders []models.Order) ([]string, error) {
	args := m.Called(ctx, orders)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, userID, role, status string) ([]models.Order, error) {
	args := m.Called(ctx, userID, role, status)
	orders, _ := args.Get(0).([]models.Order)
	return orders, args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID, from, to string) error {
	return m.Called(ctx, orderID, from, to).Error(0)
}

func (m *mockOrderRepo) TopCustomers(ctx context.Context, sellerID string, limit int) ([]repositories.TopCustomer, error) {
	args := m.Called(ctx, sellerID, limit)
	rows, _ := args.Get(0).([]repositories.TopCustomer)
	return rows, args.Error(1)
}

type mockPaymentRepo struct{ mock.Mock }

func (m *mockPaymentRepo) Create(ctx context.Context, payment models.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *mockPaymentRepo) GetByOrder(ctx context.Context, orderID string) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	payment, _ := args.Get(0).(*models.Payment)
	return payment, args.Error(1)
}

func (m *mockPaymentRepo) UpdateStatus(ctx context.Context, paymentID, status string) error {
	return m.Called(ctx, paymentID, status).Error(0)
}

type mockOrderLogRepo struct{ mock.Mock }

func (m *mockOrderLogRepo) Append(ctx context.Context, orderID, title, content string) error {
	return m.Called(ctx, orderID, title, content).Error(0)
}

func (m *mockOrderLogRepo) ListByOrder(ctx context.Context, orderID string) ([]models.OrderLog, error) {
	args := m.Called(ctx, orderID)
	logs, _ := args.Get(0).([]models.OrderLog)
	return logs, args.Error(1)
}

type mockCartRepo struct{ mock.Mock }

func (m *mockCartRepo) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	args := m.Called(ctx, customerID)
	cart, _ := args.Get(0).(*models.Cart)
	return cart, args.Error(1)
}

func (m *mockCartRepo) GetItem(ctx context.Context, customerID, productID string) (*models.CartItem, error) {
	args := m.Called(ctx, customerID, productID)
	item, _ := args.Get(0).(*models.CartItem)
	return item, args.Error(1)
}

func (m *mockCartRepo) AddItem(ctx context.Context, customerID string, item models.CartItem) error {
	return m.Called(ctx, customerID, item).Error(0)
}

func (m *mockCartRepo) UpdateQuantity(ctx context.Context, customerID, productID string, quantity int) error {
	return m.Called(ctx, customerID, productID, quantity).Error(0)
}

func (m *mockCartRepo) UpdateSKU(ctx context.Context, customerID, productID, sku string) error {
	return m.Called(ctx, customerID, productID, sku).Error(0)
}

func (m *mockCartRepo) RemoveItem(ctx context.Context, customerID, productID string) error {
	return m.Called(ctx, customerID, productID).Error(0)
}

func (m *mockCartRepo) RemoveItems(ctx context.Context, customerID string, productIDs []string) error {
	return m.Called(ctx, customerID, productIDs).Error(0)
}

func (m *mockCartRepo) Clear(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type mockReversalRepo struct{ mock.Mock }

func (m *mockReversalRepo) Create(ctx context.Context, reversal models.Reversal) error {
	return m.Called(ctx, reversal).Error(0)
}

func (m *mockReversalRepo) GetByOrder(ctx context.Context, orderID string) (*models.Reversal, error) {
	args := m.Called(ctx, orderID)
	reversal, _ := args.Get(0).(*models.Reversal)
	return reversal, args.Error(1)
}

func (m *mockReversalRepo) Resolve(ctx context.Context, orderID, sellerID, status string) error {
	return m.Called(ctx, orderID, sellerID, status).Error(0)
}

type mockWishlistRepo struct{ mock.Mock }

func (m *mockWishlistRepo) Get(ctx context.Context, customerID string) ([]string, error) {
	args := m.Called(ctx, customerID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *mockWishlistRepo) Add(ctx context.Context, customerID, productID string) error {
	return m.Called(ctx, customerID, productID).Error(0)
}

func (m *mockWishlistRepo) Remove(ctx context.Context, customerID, productID string) error {
	return m.Called(ctx, customerID, productID).Error(0)
}

func (m *mockWishlistRepo) Clear(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

type mockGateway struct{ mock.Mock }

func (m *mockGateway) GetProductByID(ctx context.Context, productID string) (*models.Product, error) {
	args := m.Called(ctx, productID)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *mockGateway) UpdateStock(ctx context.Context, productID string, delta int, sku string) error {
	return m.Called(ctx, productID, delta, sku).Error(0)
}

func (m *mockGateway) GetVariantBySKU(ctx context.Context, sku string) (*models.Variant, error) {
	args := m.Called(ctx, sku)
	variant, _ := args.Get(0).(*models.Variant)
	return variant, args.Error(1)
}

func (m *mockGateway) GetUserByID(ctx context.Context, userID, role string) (*models.User, error) {
	args := m.Called(ctx, userID, role)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockGateway) GetNotificationPreference(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	pref, _ := args.Get(0).(*models.NotificationPreference)
	return pref, args.Error(1)
}

func (m *mockGateway) CreateNotification(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *mockGateway) UpdateProductAnalytic(ctx context.Context, productID, key string, value float64) error {
	return m.Called(ctx, productID, key, value).Error(0)
}

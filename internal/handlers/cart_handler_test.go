package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/KhanhRomVN/saleso-order-service/internal/apperrors"
	"github.com/KhanhRomVN/saleso-order-service/internal/middleware"
	"github.com/KhanhRomVN/saleso-order-service/internal/models"
	"github.com/KhanhRomVN/saleso-order-service/internal/services"
)

const testSecret = "test-secret"

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

func customerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    middleware.RoleCustomer,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newCartTestApp(t *testing.T) (*fiber.App, *mockCartRepo, *mockGateway) {
	t.Helper()
	carts := new(mockCartRepo)
	gateway := new(mockGateway)
	service := services.NewCartService(carts, gateway, nil)
	handler := NewCartHandler(service, middleware.NewAuth(testSecret))

	app := fiber.New()
	handler.RegisterRoutes(app.Group("/api/v1"))
	return app, carts, gateway
}

func decodeBody(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&body))
	return body
}

func TestCartRoutesRequireAuth(t *testing.T) {
	app, _, _ := newCartTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/cart/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetCartHandler(t *testing.T) {
	app, carts, gateway := newCartTestApp(t)

	carts.On("Get", mock.Anything, "cust-1").Return(&models.Cart{
		CustomerID: "cust-1",
		Items:      []models.CartItem{{ProductID: "p1", Quantity: 2, SelectedSKU: "p1-red"}},
	}, nil)
	gateway.On("GetProductByID", mock.Anything, "p1").
		Return(&models.Product{ID: "p1", Name: "Ceramic Mug"}, nil)

	req := httptest.NewRequest("GET", "/api/v1/cart/", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken(t, "cust-1"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "cust-1", body["customer_id"])
}

func TestAddItemHandler(t *testing.T) {
	app, carts, gateway := newCartTestApp(t)

	item := models.CartItem{ProductID: "p1", Quantity: 2, SelectedSKU: "p1-red"}
	gateway.On("GetProductByID", mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil)
	carts.On("AddItem", mock.Anything, "cust-1", item).Return(nil)

	payload, _ := json.Marshal(item)
	req := httptest.NewRequest("POST", "/api/v1/cart/", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+customerToken(t, "cust-1"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	carts.AssertExpectations(t)
}

func TestAddItemHandlerConflict(t *testing.T) {
	app, carts, gateway := newCartTestApp(t)

	gateway.On("GetProductByID", mock.Anything, "p1").Return(&models.Product{ID: "p1"}, nil)
	carts.On("AddItem", mock.Anything, "cust-1", mock.Anything).
		Return(apperrors.Conflict("product p1 already in cart"))

	payload, _ := json.Marshal(models.CartItem{ProductID: "p1", Quantity: 1, SelectedSKU: "p1-red"})
	req := httptest.NewRequest("POST", "/api/v1/cart/", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+customerToken(t, "cust-1"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, string(apperrors.CodeConflict), body["code"])
}

func TestUpdateQuantityHandler(t *testing.T) {
	app, carts, _ := newCartTestApp(t)

	carts.On("UpdateQuantity", mock.Anything, "cust-1", "p1", 4).Return(nil)

	payload := []byte(`{"product_id":"p1","quantity":4}`)
	req := httptest.NewRequest("PUT", "/api/v1/cart/quantity", bytes.NewReader(payload))
	req.Header.Set("Authorization", "Bearer "+customerToken(t, "cust-1"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	carts.AssertExpectations(t)
}

func TestRemoveItemHandlerNotFound(t *testing.T) {
	app, carts, _ := newCartTestApp(t)

	carts.On("RemoveItem", mock.Anything, "cust-1", "p-gone").
		Return(apperrors.NotFound("cart item not found: p-gone"))

	req := httptest.NewRequest("DELETE", "/api/v1/cart/item/p-gone", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken(t, "cust-1"))

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

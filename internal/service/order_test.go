package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/internal/event"
	"github.com/mfkarayel/eshop/internal/repository"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

// --- Mocks ---

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockOrderRepository) Delete(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockOrderRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockOrderRepository) TotalSales(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockLineItemRepository struct {
	mock.Mock
}

func (m *mockLineItemRepository) Create(ctx context.Context, item *domain.LineItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockLineItemRepository) GetByID(ctx context.Context, id string) (*domain.LineItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LineItem), args.Error(1)
}

func (m *mockLineItemRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// fakeLineItemRepo is an in-memory line item store for placement tests,
// where item IDs are generated inside the service and cannot be predicted
// by mock expectations.
type fakeLineItemRepo struct {
	mu        sync.Mutex
	items     map[string]*domain.LineItem
	order     []string
	createErr error
	deleted   []string
}

func newFakeLineItemRepo() *fakeLineItemRepo {
	return &fakeLineItemRepo{items: make(map[string]*domain.LineItem)}
}

func (f *fakeLineItemRepo) Create(_ context.Context, item *domain.LineItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.items[item.ID] = item
	f.order = append(f.order, item.ID)
	return nil
}

func (f *fakeLineItemRepo) GetByID(_ context.Context, id string) (*domain.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return item, nil
}

func (f *fakeLineItemRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newOrderService(orders *mockOrderRepository, items repository.LineItemRepository, products *mockProductRepository) *OrderService {
	logger := newTestLogger()
	producer := event.NewProducer(nil, logger)
	return NewOrderService(orders, items, products, producer, logger)
}

func placementInput() PlaceOrderInput {
	return PlaceOrderInput{
		UserID: "user-001",
		Items: []PlaceOrderItemInput{
			{ProductID: "prod-1", Quantity: 2},
			{ProductID: "prod-2", Quantity: 1},
		},
		ShippingAddress1: "123 Main St",
		City:             "Istanbul",
		Zip:              "34000",
		Country:          "TR",
		Phone:            "+905551234567",
	}
}

// --- PlaceOrder ---

func TestPlaceOrder_Success(t *testing.T) {
	orders := new(mockOrderRepository)
	items := newFakeLineItemRepo()
	products := new(mockProductRepository)
	svc := newOrderService(orders, items, products)
	ctx := context.Background()

	products.On("GetByID", mock.Anything, "prod-1").
		Return(&domain.Product{ID: "prod-1", Price: 1000}, nil)
	products.On("GetByID", mock.Anything, "prod-2").
		Return(&domain.Product{ID: "prod-2", Price: 500}, nil)

	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).Return(nil)

	order, err := svc.PlaceOrder(ctx, placementInput())
	require.NoError(t, err)

	// Total computed from current product prices: 2*1000 + 1*500.
	assert.Equal(t, int64(2500), order.TotalPrice)
	assert.Len(t, order.LineItemIDs, 2)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "user-001", order.UserID)

	// Item order matches the request order.
	assert.Equal(t, "prod-1", items.items[order.LineItemIDs[0]].ProductID)
	assert.Equal(t, "prod-2", items.items[order.LineItemIDs[1]].ProductID)

	orders.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestPlaceOrder_NoItems(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockLineItemRepository), new(mockProductRepository))

	input := placementInput()
	input.Items = nil

	_, err := svc.PlaceOrder(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPlaceOrder_ZeroQuantity(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockLineItemRepository), new(mockProductRepository))

	input := placementInput()
	input.Items[0].Quantity = 0

	_, err := svc.PlaceOrder(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	products := new(mockProductRepository)
	svc := newOrderService(orders, items, products)

	products.On("GetByID", mock.Anything, "prod-1").
		Return(&domain.Product{ID: "prod-1", Price: 1000}, nil).Maybe()
	products.On("GetByID", mock.Anything, "prod-2").
		Return(nil, apperrors.ErrNotFound)

	_, err := svc.PlaceOrder(context.Background(), placementInput())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Nothing was written.
	items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPlaceOrder_OrderInsertFails_CleansUpItems(t *testing.T) {
	orders := new(mockOrderRepository)
	items := newFakeLineItemRepo()
	products := new(mockProductRepository)
	svc := newOrderService(orders, items, products)
	ctx := context.Background()

	products.On("GetByID", mock.Anything, mock.AnythingOfType("string")).
		Return(&domain.Product{ID: "prod-1", Price: 1000}, nil)

	orders.On("Create", ctx, mock.AnythingOfType("*domain.Order")).
		Return(errors.New("connection refused"))

	_, err := svc.PlaceOrder(ctx, placementInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")

	// The items written during the failed placement were removed again.
	assert.Len(t, items.deleted, 2)
	assert.Empty(t, items.items)
}

func TestPlaceOrder_InvalidStatus(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockLineItemRepository), new(mockProductRepository))

	input := placementInput()
	input.Status = "refunded"

	_, err := svc.PlaceOrder(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- GetOrder ---

func TestGetOrder_ResolvesLineItemsInOrder(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	products := new(mockProductRepository)
	svc := newOrderService(orders, items, products)
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(&domain.Order{
		ID:          "order-001",
		LineItemIDs: []string{"item-b", "item-a"},
	}, nil)
	items.On("GetByID", mock.Anything, "item-b").
		Return(&domain.LineItem{ID: "item-b", ProductID: "prod-2", Quantity: 1}, nil)
	items.On("GetByID", mock.Anything, "item-a").
		Return(&domain.LineItem{ID: "item-a", ProductID: "prod-1", Quantity: 3}, nil)
	products.On("GetByID", mock.Anything, "prod-2").
		Return(&domain.Product{ID: "prod-2", Name: "Boots", Price: 12999}, nil)
	products.On("GetByID", mock.Anything, "prod-1").
		Return(&domain.Product{ID: "prod-1", Name: "Shirt", Price: 1999}, nil)

	order, err := svc.GetOrder(ctx, "order-001")
	require.NoError(t, err)
	require.Len(t, order.LineItems, 2)
	assert.Equal(t, "item-b", order.LineItems[0].ID)
	assert.Equal(t, "item-a", order.LineItems[1].ID)
	require.NotNil(t, order.LineItems[0].Product)
	assert.Equal(t, "Boots", order.LineItems[0].Product.Name)
}

func TestGetOrder_DeletedProductLeftNil(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	products := new(mockProductRepository)
	svc := newOrderService(orders, items, products)
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").Return(&domain.Order{
		ID:          "order-001",
		LineItemIDs: []string{"item-a"},
	}, nil)
	items.On("GetByID", mock.Anything, "item-a").
		Return(&domain.LineItem{ID: "item-a", ProductID: "prod-gone", Quantity: 1}, nil)
	products.On("GetByID", mock.Anything, "prod-gone").
		Return(nil, apperrors.NotFound("product", "prod-gone"))

	order, err := svc.GetOrder(ctx, "order-001")
	require.NoError(t, err)
	require.Len(t, order.LineItems, 1)
	assert.Nil(t, order.LineItems[0].Product)
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockLineItemRepository), new(mockProductRepository))

	orders.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := svc.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- UpdateOrderStatus ---

func TestUpdateOrderStatus_ValidTransition(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockLineItemRepository), new(mockProductRepository))
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").
		Return(&domain.Order{ID: "order-001", Status: domain.OrderStatusPending}, nil)
	orders.On("UpdateStatus", ctx, "order-001", domain.OrderStatusProcessing).Return(nil)

	order, err := svc.UpdateOrderStatus(ctx, "order-001", domain.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	orders.AssertExpectations(t)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockLineItemRepository), new(mockProductRepository))
	ctx := context.Background()

	orders.On("GetByID", ctx, "order-001").
		Return(&domain.Order{ID: "order-001", Status: domain.OrderStatusDelivered}, nil)

	_, err := svc.UpdateOrderStatus(ctx, "order-001", domain.OrderStatusPending)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	svc := newOrderService(new(mockOrderRepository), new(mockLineItemRepository), new(mockProductRepository))

	_, err := svc.UpdateOrderStatus(context.Background(), "order-001", "refunded")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- DeleteOrder ---

func TestDeleteOrder_CascadesToLineItems(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	svc := newOrderService(orders, items, new(mockProductRepository))
	ctx := context.Background()

	orders.On("Delete", ctx, "order-001").Return([]string{"item-a", "item-b"}, nil)
	items.On("Delete", mock.Anything, "item-a").Return(nil)
	items.On("Delete", mock.Anything, "item-b").Return(nil)

	err := svc.DeleteOrder(ctx, "order-001")
	assert.NoError(t, err)
	items.AssertNumberOfCalls(t, "Delete", 2)
}

func TestDeleteOrder_NotFound(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	svc := newOrderService(orders, items, new(mockProductRepository))

	orders.On("Delete", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	err := svc.DeleteOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	items.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteOrder_PartialItemFailure(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	svc := newOrderService(orders, items, new(mockProductRepository))
	ctx := context.Background()

	orders.On("Delete", ctx, "order-001").Return([]string{"item-a", "item-b"}, nil)
	items.On("Delete", mock.Anything, "item-a").Return(nil)
	items.On("Delete", mock.Anything, "item-b").Return(errors.New("connection refused"))

	err := svc.DeleteOrder(ctx, "order-001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item-b")
	assert.Contains(t, err.Error(), "1 of 2")
}

// --- Aggregates ---

func TestCountOrders(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockLineItemRepository), new(mockProductRepository))

	orders.On("Count", mock.Anything).Return(5, nil)

	count, err := svc.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestTotalSales(t *testing.T) {
	orders := new(mockOrderRepository)
	svc := newOrderService(orders, new(mockLineItemRepository), new(mockProductRepository))

	orders.On("TotalSales", mock.Anything).Return(int64(98765), nil)

	total, err := svc.TotalSales(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(98765), total)
}

func TestListUserOrders_FiltersByUserAndResolvesItems(t *testing.T) {
	orders := new(mockOrderRepository)
	items := new(mockLineItemRepository)
	products := new(mockProductRepository)
	svc := newOrderService(orders, items, products)
	ctx := context.Background()

	userID := "user-001"
	orders.On("List", ctx, mock.MatchedBy(func(f repository.OrderFilter) bool {
		return f.UserID != nil && *f.UserID == userID
	})).Return([]domain.Order{
		{ID: "order-001", UserID: userID, LineItemIDs: []string{"item-a"}},
		{ID: "order-002", UserID: userID, LineItemIDs: []string{"item-b"}},
	}, nil)
	items.On("GetByID", mock.Anything, "item-a").
		Return(&domain.LineItem{ID: "item-a", ProductID: "prod-1", Quantity: 3}, nil)
	items.On("GetByID", mock.Anything, "item-b").
		Return(&domain.LineItem{ID: "item-b", ProductID: "prod-2", Quantity: 1}, nil)
	products.On("GetByID", mock.Anything, "prod-1").
		Return(&domain.Product{ID: "prod-1", Name: "Shirt", Price: 1999}, nil)
	products.On("GetByID", mock.Anything, "prod-2").
		Return(&domain.Product{ID: "prod-2", Name: "Boots", Price: 12999}, nil)

	result, err := svc.ListUserOrders(ctx, userID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, userID, result[0].UserID)

	require.Len(t, result[0].LineItems, 1)
	require.NotNil(t, result[0].LineItems[0].Product)
	assert.Equal(t, "Shirt", result[0].LineItems[0].Product.Name)
	require.Len(t, result[1].LineItems, 1)
	require.NotNil(t, result[1].LineItems[0].Product)
	assert.Equal(t, "Boots", result[1].LineItems[0].Product.Name)
}

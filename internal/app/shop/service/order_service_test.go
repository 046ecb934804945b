package service

import (
	"context"
	"errors"
	"testing"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/internal/app/shop/repository/mocks"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderServiceForTest() (*OrderService, *mocks.ProductRepositoryMock, *mocks.OrderRepositoryMock, *mocks.OrderItemRepositoryMock, *publisherMock, *cacheMock) {
	productRepo := new(mocks.ProductRepositoryMock)
	orderRepo := new(mocks.OrderRepositoryMock)
	itemRepo := new(mocks.OrderItemRepositoryMock)
	reviewRepo := new(mocks.ReviewRepositoryMock)
	producer := new(publisherMock)
	cache := new(cacheMock)

	txManager := mocks.NewTxManagerMock(productRepo, orderRepo, itemRepo, reviewRepo)
	svc := NewOrderService(txManager, orderRepo, producer, cache)

	return svc, productRepo, orderRepo, itemRepo, producer, cache
}

func TestCreateOrder_Success(t *testing.T) {
	svc, productRepo, orderRepo, itemRepo, producer, _ := newOrderServiceForTest()

	userID := uuid.New()
	bookID := uuid.New()
	penID := uuid.New()

	book := &entity.Product{
		ID:    bookID,
		Name:  "Book",
		Price: decimal.RequireFromString("10.50"),
		Stock: 5,
	}
	pen := &entity.Product{
		ID:    penID,
		Name:  "Pen",
		Price: decimal.RequireFromString("2.50"),
		Stock: 10,
	}

	productRepo.On("GetByID", mock.Anything, bookID).Return(book, nil)
	productRepo.On("GetByID", mock.Anything, penID).Return(pen, nil)
	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	itemRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OrderItem")).Return(nil)
	producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	req := &entity.CreateOrderRequest{
		CartItems: []entity.CartItemRequest{
			{Product: bookID, Quantity: 2},
			{Product: penID, Quantity: 1},
		},
	}

	order, err := svc.CreateOrder(context.Background(), userID, req)

	require.NoError(t, err)
	// 2 * 10.50 + 1 * 2.50 = 23.50
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("23.50")),
		"expected total 23.50, got %s", order.TotalPrice)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, userID, order.UserID)
	assert.Len(t, order.Items, 2)
	// Цена позиции фиксируется на момент покупки
	assert.True(t, order.Items[0].UnitPrice.Equal(book.Price))

	productRepo.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	svc, productRepo, orderRepo, _, _, _ := newOrderServiceForTest()

	userID := uuid.New()
	productID := uuid.New()

	product := &entity.Product{
		ID:    productID,
		Name:  "Rare Item",
		Price: decimal.RequireFromString("99.99"),
		Stock: 1,
	}
	productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)

	req := &entity.CreateOrderRequest{
		CartItems: []entity.CartItemRequest{
			{Product: productID, Quantity: 3},
		},
	}

	order, err := svc.CreateOrder(context.Background(), userID, req)

	require.Error(t, err)
	assert.Nil(t, order)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Rare Item", stockErr.ProductName)

	// Заказ не должен создаваться вовсе
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	svc, productRepo, orderRepo, _, _, _ := newOrderServiceForTest()

	productID := uuid.New()
	productRepo.On("GetByID", mock.Anything, productID).Return(nil, repository.ErrProductNotFound)

	req := &entity.CreateOrderRequest{
		CartItems: []entity.CartItemRequest{
			{Product: productID, Quantity: 1},
		},
	}

	_, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	assert.ErrorIs(t, err, ErrProductNotFound)
	orderRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrder_CompletedDecrementsStock(t *testing.T) {
	svc, productRepo, orderRepo, itemRepo, producer, cache := newOrderServiceForTest()

	productID := uuid.New()
	product := &entity.Product{
		ID:    productID,
		Name:  "Widget",
		Price: decimal.RequireFromString("5.00"),
		Stock: 4,
	}

	productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	itemRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OrderItem")).Return(nil)
	productRepo.On("DecrementStock", mock.Anything, productID, 2).Return(nil)
	producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	cache.On("DeleteProducts", mock.Anything).Return(nil)

	req := &entity.CreateOrderRequest{
		CartItems: []entity.CartItemRequest{
			{Product: productID, Quantity: 2},
		},
		Status: entity.OrderStatusCompleted,
	}

	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)
	productRepo.AssertCalled(t, "DecrementStock", mock.Anything, productID, 2)
	cache.AssertCalled(t, "DeleteProducts", mock.Anything)
}

func TestCreateOrder_CompletedStockRace(t *testing.T) {
	svc, productRepo, orderRepo, itemRepo, _, _ := newOrderServiceForTest()

	productID := uuid.New()
	product := &entity.Product{
		ID:    productID,
		Name:  "Last One",
		Price: decimal.RequireFromString("7.00"),
		Stock: 1,
	}

	productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	itemRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OrderItem")).Return(nil)
	// Конкурент успел списать остаток между проверкой и UPDATE
	productRepo.On("DecrementStock", mock.Anything, productID, 1).Return(repository.ErrStockExhausted)

	req := &entity.CreateOrderRequest{
		CartItems: []entity.CartItemRequest{
			{Product: productID, Quantity: 1},
		},
		Status: entity.OrderStatusCompleted,
	}

	_, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Last One", stockErr.ProductName)
}

func TestCreateOrder_KafkaFailureIsNotFatal(t *testing.T) {
	svc, productRepo, orderRepo, itemRepo, producer, _ := newOrderServiceForTest()

	productID := uuid.New()
	product := &entity.Product{
		ID:    productID,
		Name:  "Widget",
		Price: decimal.RequireFromString("5.00"),
		Stock: 10,
	}

	productRepo.On("GetByID", mock.Anything, productID).Return(product, nil)
	orderRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.Order")).Return(nil)
	itemRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.OrderItem")).Return(nil)
	producer.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	req := &entity.CreateOrderRequest{
		CartItems: []entity.CartItemRequest{
			{Product: productID, Quantity: 1},
		},
	}

	order, err := svc.CreateOrder(context.Background(), uuid.New(), req)

	require.NoError(t, err)
	assert.NotNil(t, order)
}

func TestGetOrder_ForeignOrderLooksLikeNotFound(t *testing.T) {
	svc, _, orderRepo, _, _, _ := newOrderServiceForTest()

	ownerID := uuid.New()
	strangerID := uuid.New()
	orderID := uuid.New()

	order := &entity.OrderWithItems{
		Order: entity.Order{ID: orderID, UserID: ownerID, Status: entity.OrderStatusPending},
	}
	orderRepo.On("GetWithItems", mock.Anything, orderID).Return(order, nil)

	_, err := svc.GetOrder(context.Background(), orderID, strangerID, false)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Владелец и staff заказ видят
	got, err := svc.GetOrder(context.Background(), orderID, ownerID, false)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ID)

	got, err = svc.GetOrder(context.Background(), orderID, strangerID, true)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ID)
}

func TestListOrders_Visibility(t *testing.T) {
	svc, _, orderRepo, _, _, _ := newOrderServiceForTest()

	userID := uuid.New()
	own := []entity.OrderWithItems{
		{Order: entity.Order{ID: uuid.New(), UserID: userID}},
	}
	all := []entity.OrderWithItems{
		{Order: entity.Order{ID: uuid.New(), UserID: userID}},
		{Order: entity.Order{ID: uuid.New(), UserID: uuid.New()}},
	}

	orderRepo.On("GetByUserID", mock.Anything, userID).Return(own, nil)
	orderRepo.On("GetAll", mock.Anything).Return(all, nil)

	orders, err := svc.ListOrders(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = svc.ListOrders(context.Background(), userID, true)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestAdminUpdateOrder_StatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    entity.OrderStatus
		to      entity.OrderStatus
		allowed bool
	}{
		{"pending to processing", entity.OrderStatusPending, entity.OrderStatusProcessing, true},
		{"pending to cancelled", entity.OrderStatusPending, entity.OrderStatusCancelled, true},
		{"pending to delivered", entity.OrderStatusPending, entity.OrderStatusDelivered, false},
		{"processing to shipped", entity.OrderStatusProcessing, entity.OrderStatusShipped, true},
		{"shipped to delivered", entity.OrderStatusShipped, entity.OrderStatusDelivered, true},
		{"shipped to cancelled", entity.OrderStatusShipped, entity.OrderStatusCancelled, false},
		{"delivered is terminal", entity.OrderStatusDelivered, entity.OrderStatusPending, false},
		{"cancelled is terminal", entity.OrderStatusCancelled, entity.OrderStatusProcessing, false},
		{"completed is terminal", entity.OrderStatusCompleted, entity.OrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, orderRepo, _, _, _ := newOrderServiceForTest()

			orderID := uuid.New()
			order := &entity.Order{ID: orderID, UserID: uuid.New(), Status: tt.from}
			orderRepo.On("GetByID", mock.Anything, orderID).Return(order, nil)
			orderRepo.On("UpdateStatus", mock.Anything, orderID, tt.to).Return(nil)

			updated, err := svc.AdminUpdateOrder(context.Background(), orderID, &entity.AdminUpdateOrderRequest{Status: tt.to})

			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, tt.to, updated.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
			}
		})
	}
}

func TestAdminUpdateOrder_SameStatusIsNoop(t *testing.T) {
	svc, _, orderRepo, _, _, _ := newOrderServiceForTest()

	orderID := uuid.New()
	order := &entity.Order{ID: orderID, Status: entity.OrderStatusPending}
	orderRepo.On("GetByID", mock.Anything, orderID).Return(order, nil)

	updated, err := svc.AdminUpdateOrder(context.Background(), orderID, &entity.AdminUpdateOrderRequest{Status: entity.OrderStatusPending})

	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, updated.Status)
	orderRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteOrder_OnlyOwnerOrStaff(t *testing.T) {
	svc, _, orderRepo, _, _, _ := newOrderServiceForTest()

	ownerID := uuid.New()
	orderID := uuid.New()
	order := &entity.Order{ID: orderID, UserID: ownerID}

	orderRepo.On("GetByID", mock.Anything, orderID).Return(order, nil)
	orderRepo.On("Delete", mock.Anything, orderID).Return(nil)

	err := svc.DeleteOrder(context.Background(), orderID, uuid.New(), false)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	err = svc.DeleteOrder(context.Background(), orderID, ownerID, false)
	assert.NoError(t, err)
}

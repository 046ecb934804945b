package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/pkg/logger"
	"lotusmart/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrOrderNotFound           = errors.New("order not found")
	ErrProductNotFound         = errors.New("product not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

// InsufficientStockError возвращается при нехватке товара на складе
// и называет первый товар, на котором проверка не прошла
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s", e.ProductName)
}

// OrderService обрабатывает бизнес-логику заказов.
// Создание заказа - единственная операция с многострочной атомарностью,
// выполняется целиком внутри одной транзакции через TxManager
type OrderService struct {
	txManager     repository.TxManager
	orderRepo     repository.OrderRepository
	kafkaProducer MessagePublisher
	cache         ProductCache
}

// NewOrderService создает новый сервис заказов с внедрением зависимостей
func NewOrderService(
	txManager repository.TxManager,
	orderRepo repository.OrderRepository,
	kafkaProducer MessagePublisher,
	cache ProductCache,
) *OrderService {
	return &OrderService{
		txManager:     txManager,
		orderRepo:     orderRepo,
		kafkaProducer: kafkaProducer,
		cache:         cache,
	}
}

// CreateOrder создает новый заказ атомарно:
// 1. Проверяет остатки каждого товара (первая нехватка отменяет весь заказ)
// 2. Создает заказ и позиции
// 3. Считает итоговую сумму как sum(цена * количество) в decimal
// 4. Если заказ создан сразу со статусом completed - списывает остатки
// Любая ошибка откатывает транзакцию целиком, частичных заказов не бывает.
// userID всегда берется из аутентифицированного контекста, не из тела запроса
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *entity.CreateOrderRequest) (*entity.OrderWithItems, error) {
	status := req.Status
	if status == "" {
		status = entity.OrderStatusPending
	}

	order := &entity.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     status,
		TotalPrice: decimal.Zero,
		CreatedAt:  time.Now(),
	}

	var items []entity.OrderItem

	err := s.txManager.Do(ctx, func(r *repository.Repositories) error {
		total := decimal.Zero
		productNames := make(map[uuid.UUID]string, len(req.CartItems))

		for _, itemReq := range req.CartItems {
			product, err := r.Products.GetByID(ctx, itemReq.Product)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("failed to get product: %w", err)
			}
			productNames[product.ID] = product.Name

			// Остатки не блокируются между проверкой и коммитом -
			// два конкурентных заказа на последнюю единицу могут пройти оба
			if product.Stock < itemReq.Quantity {
				return &InsufficientStockError{ProductName: product.Name}
			}

			item := entity.OrderItem{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  itemReq.Quantity,
				UnitPrice: product.Price,
			}
			items = append(items, item)
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(itemReq.Quantity))))
		}

		order.TotalPrice = total

		if err := r.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i := range items {
			if err := r.OrderItems.Create(ctx, &items[i]); err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		// Немедленное исполнение: заказ создан уже завершённым,
		// остатки списываются в той же транзакции
		if order.Status == entity.OrderStatusCompleted {
			for _, item := range items {
				if err := r.Products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
					if errors.Is(err, repository.ErrStockExhausted) {
						return &InsufficientStockError{ProductName: productNames[item.ProductID]}
					}
					return fmt.Errorf("failed to decrement stock: %w", err)
				}
			}
		}

		return nil
	})

	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			metrics.OrdersRejectedStock.Inc()
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()

	event := entity.OrderEvent{
		EventType:  "ORDER_CREATED",
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		ItemsCount: len(items),
		Timestamp:  time.Now(),
	}
	if err := s.publishOrderEvent(ctx, event); err != nil {
		// Заказ уже создан, проблемы с Kafka не критичны
		logger.Warn().Err(err).Str("order_id", order.ID.String()).Msg("failed to publish order created event")
	}

	// Списание остатков меняет данные каталога - сбрасываем кеш
	if order.Status == entity.OrderStatusCompleted {
		if err := s.cache.DeleteProducts(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate products cache")
		}
	}

	return &entity.OrderWithItems{
		Order: *order,
		Items: items,
	}, nil
}

// GetOrder получает заказ по ID.
// Не-staff пользователь видит только свои заказы; на чужой заказ возвращается
// ErrOrderNotFound, а не 403 - существование чужих заказов не раскрывается
func (s *OrderService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isStaff bool) (*entity.OrderWithItems, error) {
	order, err := s.orderRepo.GetWithItems(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if !isStaff && order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	return order, nil
}

// ListOrders возвращает заказы: staff видит все, пользователь - только свои
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, isStaff bool) ([]entity.OrderWithItems, error) {
	var orders []entity.OrderWithItems
	var err error

	if isStaff {
		orders, err = s.orderRepo.GetAll(ctx)
	} else {
		orders, err = s.orderRepo.GetByUserID(ctx, userID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	return orders, nil
}

// AdminUpdateOrder выполняет частичное обновление заказа (только staff).
// Смена статуса проверяется по явной таблице переходов
func (s *OrderService) AdminUpdateOrder(ctx context.Context, orderID uuid.UUID, req *entity.AdminUpdateOrderRequest) (*entity.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if req.Status == "" || req.Status == order.Status {
		return order, nil
	}

	if !isValidStatusTransition(order.Status, req.Status) {
		return nil, ErrInvalidStatusTransition
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, req.Status); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	order.Status = req.Status
	return order, nil
}

// DeleteOrder удаляет заказ. Доступен владельцу и staff.
// Позиции удаляются каскадно, ссылки из отзывов обнуляются
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, userID uuid.UUID, isStaff bool) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to get order: %w", err)
	}

	if !isStaff && order.UserID != userID {
		return ErrOrderNotFound
	}

	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}

// publishOrderEvent отправляет событие о заказе в Kafka
func (s *OrderService) publishOrderEvent(ctx context.Context, event entity.OrderEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.OrderID.String(), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}

// isValidStatusTransition проверяет допустимость смены статуса заказа.
// delivered, completed и cancelled - финальные статусы
func isValidStatusTransition(from, to entity.OrderStatus) bool {
	validTransitions := map[entity.OrderStatus][]entity.OrderStatus{
		entity.OrderStatusPending: {
			entity.OrderStatusProcessing,
			entity.OrderStatusCancelled,
		},
		entity.OrderStatusProcessing: {
			entity.OrderStatusShipped,
			entity.OrderStatusCancelled,
		},
		entity.OrderStatusShipped: {
			entity.OrderStatusDelivered,
		},
		entity.OrderStatusDelivered: {},
		entity.OrderStatusCompleted: {},
		entity.OrderStatusCancelled: {},
	}

	allowedStatuses, exists := validTransitions[from]
	if !exists {
		return false
	}

	for _, status := range allowedStatuses {
		if status == to {
			return true
		}
	}

	return false
}

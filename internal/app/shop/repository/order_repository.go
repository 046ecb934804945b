package repository

import (
	"context"
	"errors"

	"lotusmart/internal/app/shop/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создает новый заказ (без позиций - их пишет OrderItemRepository)
func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	result := r.db.WithContext(ctx).Omit("Items").Create(order)
	return result.Error
}

// GetByID получает заказ по ID
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &order, nil
}

// GetWithItems получает заказ с полным списком позиций
func (r *orderRepository) GetWithItems(ctx context.Context, id uuid.UUID) (*entity.OrderWithItems, error) {
	var order entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, result.Error
	}

	return &entity.OrderWithItems{
		Order: order,
		Items: order.Items,
	}, nil
}

// GetByUserID получает все заказы пользователя, новые первыми
func (r *orderRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.OrderWithItems, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	return wrapWithItems(orders), nil
}

// GetAll получает все заказы (только для staff)
func (r *orderRepository) GetAll(ctx context.Context) ([]entity.OrderWithItems, error) {
	var orders []entity.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders)

	if result.Error != nil {
		return nil, result.Error
	}

	return wrapWithItems(orders), nil
}

// UpdateStatus обновляет статус заказа
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&entity.Order{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// Delete удаляет заказ
// Позиции удаляются через CASCADE, order_id в отзывах обнуляется через SET NULL
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Order{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// HasDeliveredProduct проверяет, есть ли у пользователя доставленный заказ с товаром
func (r *orderRepository) HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&entity.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, entity.OrderStatusDelivered, productID).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

// LatestDeliveredOrderID возвращает ID последнего доставленного заказа с товаром.
// Возвращает nil без ошибки, если такого заказа нет
func (r *orderRepository) LatestDeliveredOrderID(ctx context.Context, userID, productID uuid.UUID) (*uuid.UUID, error) {
	var row struct {
		ID uuid.UUID
	}

	result := r.db.WithContext(ctx).Model(&entity.Order{}).
		Select("orders.id").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, entity.OrderStatusDelivered, productID).
		Order("orders.created_at DESC").
		Limit(1).
		Take(&row)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &row.ID, nil
}

// DeliveredProductIDs возвращает ID всех товаров из доставленных заказов пользователя
func (r *orderRepository) DeliveredProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.db.WithContext(ctx).Model(&entity.OrderItem{}).
		Distinct().
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ?", userID, entity.OrderStatusDelivered).
		Pluck("order_items.product_id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

func wrapWithItems(orders []entity.Order) []entity.OrderWithItems {
	result := make([]entity.OrderWithItems, len(orders))
	for i, order := range orders {
		result[i] = entity.OrderWithItems{
			Order: order,
			Items: order.Items,
		}
	}
	return result
}

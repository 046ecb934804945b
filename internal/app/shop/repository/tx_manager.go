package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories объединяет репозитории, привязанные к одному соединению
// (или к одной транзакции, если создано внутри TxManager.Do)
type Repositories struct {
	Products   ProductRepository
	Orders     OrderRepository
	OrderItems OrderItemRepository
	Reviews    ReviewRepository
}

// NewRepositories создает набор репозиториев поверх переданного *gorm.DB
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Products:   NewProductRepository(db),
		Orders:     NewOrderRepository(db),
		OrderItems: NewOrderItemRepository(db),
		Reviews:    NewReviewRepository(db),
	}
}

// TxManager выполняет функцию внутри одной транзакции БД.
// Возврат ошибки из fn откатывает транзакцию, nil - коммитит.
type TxManager interface {
	Do(ctx context.Context, fn func(r *Repositories) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

// NewTxManager создает менеджер транзакций поверх GORM
func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

// Do открывает транзакцию и передает в fn репозитории, привязанные к ней
func (m *gormTxManager) Do(ctx context.Context, fn func(r *Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

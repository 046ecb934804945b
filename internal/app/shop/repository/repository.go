package repository

import (
	"context"
	"errors"

	"lotusmart/internal/app/shop/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// Стандартные ошибки репозитория для обработки в service layer
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrStockExhausted  = errors.New("insufficient stock")
)

// ProductFilter описывает параметры поиска по каталогу
type ProductFilter struct {
	Query    string                 // Подстрока для поиска по name/description
	Category entity.ProductCategory // Фильтр по категории, пустая строка - без фильтра
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetAll(ctx context.Context) ([]entity.Product, error)
	Search(ctx context.Context, filter ProductFilter) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error
	UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	GetWithItems(ctx context.Context, id uuid.UUID) (*entity.OrderWithItems, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]entity.OrderWithItems, error)
	GetAll(ctx context.Context) ([]entity.OrderWithItems, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Запросы для проверки права на отзыв
	HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
	LatestDeliveredOrderID(ctx context.Context, userID, productID uuid.UUID) (*uuid.UUID, error)
	DeliveredProductIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type OrderItemRepository interface {
	Create(ctx context.Context, item *entity.OrderItem) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]entity.OrderItem, error)
}

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error)
	GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*entity.Review, error)
	GetByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]entity.Review, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementHelpful(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

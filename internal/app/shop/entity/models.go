package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductCategory представляет тип товара
type ProductCategory string

const (
	CategoryPhysical ProductCategory = "physical" // Физический товар
	CategoryDigital  ProductCategory = "digital"  // Цифровой товар
)

// Product представляет товар в каталоге
// Денежные поля хранятся как decimal для точной арифметики
type Product struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null"`
	Description   string          `json:"description" gorm:"type:text;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category      ProductCategory `json:"category" gorm:"type:varchar(50);not null"`
	Stock         int             `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	Image         string          `json:"image" gorm:"type:varchar(500)"` // URL изображения, пустая строка если нет
	AverageRating decimal.Decimal `json:"average_rating" gorm:"type:decimal(3,2);not null;default:0"`
	ReviewCount   int             `json:"review_count" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName указывает имя таблицы для GORM
func (Product) TableName() string {
	return "products"
}

// OrderStatus представляет статусы заказа
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // Ожидает обработки
	OrderStatusProcessing OrderStatus = "processing" // В обработке
	OrderStatusShipped    OrderStatus = "shipped"    // Отправлен
	OrderStatusDelivered  OrderStatus = "delivered"  // Доставлен (открывает право на отзыв)
	OrderStatusCompleted  OrderStatus = "completed"  // Завершён (немедленное исполнение, списывает остатки при создании)
	OrderStatusCancelled  OrderStatus = "cancelled"  // Отменён
)

// Order представляет заказ в системе
type Order struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID       `json:"user" gorm:"type:uuid;not null;index"` // ID пользователя из identity provider
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2);not null"`
	Status     OrderStatus     `json:"status" gorm:"type:varchar(50);not null;default:'pending'"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	Items      []OrderItem     `json:"cartItems,omitempty" gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName указывает имя таблицы для GORM
func (Order) TableName() string {
	return "orders"
}

// OrderItem представляет позицию в заказе
type OrderItem struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `json:"order_id" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `json:"product" gorm:"type:uuid;not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null;check:quantity > 0"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"` // Цена за единицу на момент покупки
}

// TableName указывает имя таблицы для GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// Review представляет отзыв на товар
// Уникальный индекс (user_id, product_id) - один отзыв на товар от пользователя,
// ограничение БД является основным механизмом защиты от дублей
type Review struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `json:"user" gorm:"type:uuid;not null;uniqueIndex:uq_reviews_user_product"`
	ProductID    uuid.UUID  `json:"product" gorm:"type:uuid;not null;uniqueIndex:uq_reviews_user_product;index"`
	OrderID      *uuid.UUID `json:"order,omitempty" gorm:"type:uuid"` // Слабая ссылка на заказ, NULL после удаления заказа
	Order        *Order     `json:"-" gorm:"foreignKey:OrderID;constraint:OnDelete:SET NULL"`
	Rating       int        `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment      string     `json:"comment" gorm:"type:text;not null"`
	HelpfulCount int        `json:"helpful_count" gorm:"not null;default:0"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Review) TableName() string {
	return "reviews"
}

// OrderWithItems содержит заказ с полным списком позиций
type OrderWithItems struct {
	Order
	Items []OrderItem `json:"cartItems"`
}

// User представляет аккаунт пользователя
// Токены выпускает внешний identity provider, здесь только профиль
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	PasswordHash string    `json:"-" db:"password_hash"` // не возвращаем в JSON
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// OrderEvent представляет событие о заказе для Kafka
type OrderEvent struct {
	EventType  string          `json:"event_type"` // ORDER_CREATED
	OrderID    uuid.UUID       `json:"order_id"`
	UserID     uuid.UUID       `json:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	ItemsCount int             `json:"items_count"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ReviewEvent представляет событие об отзыве для Kafka
type ReviewEvent struct {
	EventType string    `json:"event_type"` // REVIEW_CREATED
	ReviewID  uuid.UUID `json:"review_id"`
	ProductID uuid.UUID `json:"product_id"`
	UserID    uuid.UUID `json:"user_id"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ===== Запросы =====

type CartItemRequest struct {
	Product  uuid.UUID `json:"product" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	CartItems []CartItemRequest `json:"cartItems" validate:"required,min=1,dive"`
	// Статус при создании опционален; "completed" включает немедленное списание остатков
	Status OrderStatus `json:"status" validate:"omitempty,oneof=pending processing shipped delivered completed cancelled"`
}

type AdminUpdateOrderRequest struct {
	Status OrderStatus `json:"status" validate:"omitempty,oneof=pending processing shipped delivered completed cancelled"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=2,max=255"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Category    ProductCategory `json:"category" validate:"required,oneof=physical digital"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name        string           `json:"name" validate:"omitempty,min=2,max=255"`
	Description string           `json:"description" validate:"omitempty"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty"`
	Category    ProductCategory  `json:"category" validate:"omitempty,oneof=physical digital"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=1,max=2000"`
}

type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,min=1,max=2000"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ===== Ответы =====

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	Product    uuid.UUID       `json:"product"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderResponse struct {
	ID         uuid.UUID       `json:"id"`
	User       uuid.UUID       `json:"user"`
	CartItems  []ItemResponse  `json:"cartItems"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  string          `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// ReviewSummary агрегирует выборку отзывов (возможно ограниченную limit)
type ReviewSummary struct {
	Count              int             `json:"count"`
	AverageRating      decimal.Decimal `json:"average_rating"`
	RatingDistribution map[int]int     `json:"rating_distribution"` // 1..5 -> количество
}

type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	ReviewSummary
}

type CanReviewResponse struct {
	CanReview    bool `json:"can_review"`
	HasPurchased bool `json:"has_purchased"`
	HasReviewed  bool `json:"has_reviewed"`
}

// ProductSummary - краткая карточка товара для списка доступных к отзыву
type ProductSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Image string    `json:"image"`
}

type ReviewableProductsResponse struct {
	Count    int              `json:"count"`
	Products []ProductSummary `json:"products"`
}

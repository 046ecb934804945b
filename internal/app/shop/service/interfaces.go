package service

import (
	"context"
	"io"
	"time"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/repository"

	"github.com/google/uuid"
)

// MessagePublisher отправляет доменные события (реализация - Kafka producer)
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
}

// ProductCache кеширует список товаров каталога (реализация - Redis)
type ProductCache interface {
	GetProducts(ctx context.Context) ([]entity.Product, error)
	SetProducts(ctx context.Context, products []entity.Product, ttl time.Duration) error
	DeleteProducts(ctx context.Context) error
}

// ImageUpload - загружаемое изображение товара
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

type CatalogServiceInterface interface {
	GetAllProducts(ctx context.Context) ([]entity.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	SearchProducts(ctx context.Context, filter repository.ProductFilter) ([]entity.Product, error)
	CreateProduct(ctx context.Context, req *entity.CreateProductRequest, image *ImageUpload) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest, image *ImageUpload) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *entity.CreateOrderRequest) (*entity.OrderWithItems, error)
	GetOrder(ctx context.Context, orderID, userID uuid.UUID, isStaff bool) (*entity.OrderWithItems, error)
	ListOrders(ctx context.Context, userID uuid.UUID, isStaff bool) ([]entity.OrderWithItems, error)
	AdminUpdateOrder(ctx context.Context, orderID uuid.UUID, req *entity.AdminUpdateOrderRequest) (*entity.Order, error)
	DeleteOrder(ctx context.Context, orderID, userID uuid.UUID, isStaff bool) error
}

type ReviewServiceInterface interface {
	ListProductReviews(ctx context.Context, productID uuid.UUID, limit int) (*entity.ReviewListResponse, error)
	CreateReview(ctx context.Context, userID, productID uuid.UUID, req *entity.CreateReviewRequest) (*entity.Review, error)
	UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error)
	DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isStaff bool) error
	MarkHelpful(ctx context.Context, reviewID uuid.UUID) (*entity.Review, error)
	CanReview(ctx context.Context, userID, productID uuid.UUID) (*entity.CanReviewResponse, error)
	ReviewableProducts(ctx context.Context, userID uuid.UUID) (*entity.ReviewableProductsResponse, error)
}

type UserServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, error)
}

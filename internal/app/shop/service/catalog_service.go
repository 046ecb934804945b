package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/internal/app/shop/util"
	"lotusmart/pkg/logger"
	"lotusmart/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrice возвращается при отрицательной цене товара
	ErrInvalidPrice = errors.New("price must not be negative")
)

// CatalogService обрабатывает бизнес-логику каталога товаров.
// Список товаров кешируется в Redis; любая запись в каталог сбрасывает кеш
type CatalogService struct {
	productRepo repository.ProductRepository
	cache       ProductCache
	imageStore  util.ImageStore
	cacheTTL    time.Duration
}

// NewCatalogService создает новый сервис каталога
func NewCatalogService(
	productRepo repository.ProductRepository,
	cache ProductCache,
	imageStore util.ImageStore,
	cacheTTL time.Duration,
) *CatalogService {
	return &CatalogService{
		productRepo: productRepo,
		cache:       cache,
		imageStore:  imageStore,
		cacheTTL:    cacheTTL,
	}
}

// GetAllProducts возвращает все товары каталога (cache-aside через Redis).
// Ошибки кеша не фатальны - идем в БД
func (s *CatalogService) GetAllProducts(ctx context.Context) ([]entity.Product, error) {
	cached, err := s.cache.GetProducts(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read products from cache")
	}
	if cached != nil {
		return cached, nil
	}

	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	// Пустой каталог кешируем как [], nil сериализуется в null
	// и при чтении неотличим от промаха
	if products == nil {
		products = []entity.Product{}
	}

	if err := s.cache.SetProducts(ctx, products, s.cacheTTL); err != nil {
		logger.Warn().Err(err).Msg("failed to cache products")
	}

	return products, nil
}

// GetProduct возвращает товар по ID
func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return product, nil
}

// SearchProducts ищет товары по подстроке, категории и диапазону цен.
// Поисковые запросы не кешируются - комбинаций фильтров слишком много
func (s *CatalogService) SearchProducts(ctx context.Context, filter repository.ProductFilter) ([]entity.Product, error) {
	products, err := s.productRepo.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	metrics.ProductSearches.Inc()
	return products, nil
}

// CreateProduct создает новый товар (только staff).
// image опционален; при ошибке после сохранения файл подчищается
func (s *CatalogService) CreateProduct(ctx context.Context, req *entity.CreateProductRequest, image *ImageUpload) (*entity.Product, error) {
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	product := &entity.Product{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Category:      req.Category,
		Stock:         req.Stock,
		AverageRating: decimal.Zero,
		ReviewCount:   0,
		CreatedAt:     time.Now(),
	}

	if image != nil {
		url, err := s.imageStore.Save(image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to save product image: %w", err)
		}
		product.Image = url
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if product.Image != "" {
			if delErr := s.imageStore.Delete(product.Image); delErr != nil {
				logger.Warn().Err(delErr).Msg("failed to clean up orphan product image")
			}
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidateCache(ctx)
	return product, nil
}

// UpdateProduct выполняет частичное обновление товара (только staff).
// Непереданные поля сохраняют прежние значения; новое изображение
// заменяет старое, старый файл удаляется
func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *entity.UpdateProductRequest, image *ImageUpload) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != "" {
		product.Description = req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		product.Price = *req.Price
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	oldImage := ""
	if image != nil {
		url, err := s.imageStore.Save(image.Filename, image.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to save product image: %w", err)
		}
		oldImage = product.Image
		product.Image = url
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	if oldImage != "" {
		if err := s.imageStore.Delete(oldImage); err != nil {
			logger.Warn().Err(err).Msg("failed to delete replaced product image")
		}
	}

	s.invalidateCache(ctx)
	return product, nil
}

// DeleteProduct удаляет товар вместе с его изображением (только staff)
func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if product.Image != "" {
		if err := s.imageStore.Delete(product.Image); err != nil {
			logger.Warn().Err(err).Msg("failed to delete product image")
		}
	}

	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if err := s.cache.DeleteProducts(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate products cache")
	}
}

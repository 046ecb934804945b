package repository

import (
	"context"
	"errors"

	"lotusmart/internal/app/shop/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создает новый товар
func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Create(product)
	return result.Error
}

// GetByID получает товар по ID
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := r.db.WithContext(ctx).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, result.Error
	}

	return &product, nil
}

// GetAll получает все товары, отсортированные по ID для стабильной пагинации
func (r *productRepository) GetAll(ctx context.Context) ([]entity.Product, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).Order("id ASC").Find(&products)

	if result.Error != nil {
		return nil, result.Error
	}

	return products, nil
}

// Search ищет товары по подстроке имени/описания с фильтрами по категории и цене
func (r *productRepository) Search(ctx context.Context, filter ProductFilter) ([]entity.Product, error) {
	db := r.db.WithContext(ctx).Model(&entity.Product{})

	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		db = db.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		db = db.Where("price >= ?", filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		db = db.Where("price <= ?", filter.MaxPrice)
	}

	var products []entity.Product
	if err := db.Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

// Update обновляет товар
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	result := r.db.WithContext(ctx).Model(product).Where("id = ?", product.ID).Updates(map[string]interface{}{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"category":    product.Category,
		"stock":       product.Stock,
		"image":       product.Image,
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete удаляет товар
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// DecrementStock атомарно списывает количество товара со склада.
// Условие stock >= quantity не дает остатку уйти в минус
func (r *productRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrStockExhausted
	}

	return nil
}

// UpdateRating записывает пересчитанные агрегаты рейтинга товара
func (r *productRepository) UpdateRating(ctx context.Context, id uuid.UUID, average decimal.Decimal, count int) error {
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"average_rating": average,
			"review_count":   count,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ListIDs возвращает ID всех товаров (используется джобой пересчёта рейтингов)
func (r *productRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	result := r.db.WithContext(ctx).Model(&entity.Product{}).
		Order("id ASC").
		Pluck("id", &ids)

	if result.Error != nil {
		return nil, result.Error
	}

	return ids, nil
}

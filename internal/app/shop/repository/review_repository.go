package repository

import (
	"context"
	"errors"

	"lotusmart/internal/app/shop/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository создает новый репозиторий отзывов
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create создает новый отзыв.
// Нарушение уникального индекса (user_id, product_id) возвращается как ErrDuplicateKey -
// именно ограничение БД, а не предварительная проверка, гарантирует один отзыв на товар
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	result := r.db.WithContext(ctx).Omit("Order").Create(review)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return result.Error
	}

	return nil
}

// GetByID получает отзыв по ID
func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	result := r.db.WithContext(ctx).First(&review, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, result.Error
	}

	return &review, nil
}

// GetByUserAndProduct получает отзыв пользователя на конкретный товар
func (r *reviewRepository) GetByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*entity.Review, error) {
	var review entity.Review
	result := r.db.WithContext(ctx).
		First(&review, "user_id = ? AND product_id = ?", userID, productID)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, result.Error
	}

	return &review, nil
}

// GetByProductID получает отзывы на товар, новые первыми.
// limit <= 0 означает без ограничения
func (r *reviewRepository) GetByProductID(ctx context.Context, productID uuid.UUID, limit int) ([]entity.Review, error) {
	db := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC")

	if limit > 0 {
		db = db.Limit(limit)
	}

	var reviews []entity.Review
	if err := db.Find(&reviews).Error; err != nil {
		return nil, err
	}

	return reviews, nil
}

// Update обновляет оценку и текст отзыва
func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	result := r.db.WithContext(ctx).Model(review).
		Where("id = ?", review.ID).
		Updates(map[string]interface{}{
			"rating":  review.Rating,
			"comment": review.Comment,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// Delete удаляет отзыв
func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Review{}, "id = ?", id)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// IncrementHelpful атомарно увеличивает счётчик полезности отзыва
func (r *reviewRepository) IncrementHelpful(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&entity.Review{}).
		Where("id = ?", id).
		UpdateColumn("helpful_count", gorm.Expr("helpful_count + 1"))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}

	return nil
}

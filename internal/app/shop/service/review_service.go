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
	ErrReviewNotFound = errors.New("review not found")
	// ErrNotEligible - у пользователя нет доставленного заказа с этим товаром
	ErrNotEligible = errors.New("user has not purchased this product")
	// ErrDuplicateReview - отзыв на этот товар от пользователя уже существует
	ErrDuplicateReview = errors.New("review for this product already exists")
	// ErrNotReviewAuthor - попытка изменить чужой отзыв
	ErrNotReviewAuthor = errors.New("review belongs to another user")
)

// ReviewService обрабатывает бизнес-логику отзывов.
// Право на отзыв: хотя бы один доставленный заказ пользователя содержит товар.
// Агрегаты рейтинга на товаре пересчитываются полным проходом по отзывам
// после каждой записи - никаких инкрементальных формул
type ReviewService struct {
	reviewRepo    repository.ReviewRepository
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	kafkaProducer MessagePublisher
	cache         ProductCache
}

// NewReviewService создает новый сервис отзывов
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	kafkaProducer MessagePublisher,
	cache ProductCache,
) *ReviewService {
	return &ReviewService{
		reviewRepo:    reviewRepo,
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		kafkaProducer: kafkaProducer,
		cache:         cache,
	}
}

// ListProductReviews возвращает отзывы на товар (новые первыми) со сводкой:
// количество, средняя оценка и распределение по оценкам 1..5.
// Сводка считается по возвращенной выборке, limit <= 0 снимает ограничение
func (s *ReviewService) ListProductReviews(ctx context.Context, productID uuid.UUID, limit int) (*entity.ReviewListResponse, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	reviews, err := s.reviewRepo.GetByProductID(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return &entity.ReviewListResponse{
		Reviews:       reviews,
		ReviewSummary: summarize(reviews),
	}, nil
}

// CreateReview создает отзыв на товар:
// 1. Товар должен существовать
// 2. У пользователя должен быть доставленный заказ с этим товаром
// 3. Второй отзыв на тот же товар запрещен (проверка + уникальный индекс БД)
// Отзыв привязывается к самому свежему доставленному заказу с товаром,
// после записи агрегаты рейтинга пересчитываются
func (s *ReviewService) CreateReview(ctx context.Context, userID, productID uuid.UUID, req *entity.CreateReviewRequest) (*entity.Review, error) {
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	eligible, err := s.orderRepo.HasDeliveredProduct(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase history: %w", err)
	}
	if !eligible {
		metrics.RecordReviewRejected("not_eligible")
		return nil, ErrNotEligible
	}

	existing, err := s.reviewRepo.GetByUserAndProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		metrics.RecordReviewRejected("duplicate")
		return nil, ErrDuplicateReview
	}

	orderID, err := s.orderRepo.LatestDeliveredOrderID(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find delivered order: %w", err)
	}

	review := &entity.Review{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// Уникальный индекс БД ловит гонку двух одновременных отзывов
		if errors.Is(err, repository.ErrDuplicateKey) {
			metrics.RecordReviewRejected("duplicate")
			return nil, ErrDuplicateReview
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	metrics.ReviewsCreated.Inc()
	metrics.ReviewsRating.Observe(float64(req.Rating))

	if err := s.RecomputeProductRating(ctx, productID); err != nil {
		logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to recompute product rating")
	}

	event := entity.ReviewEvent{
		EventType: "REVIEW_CREATED",
		ReviewID:  review.ID,
		ProductID: productID,
		UserID:    userID,
		Rating:    review.Rating,
		Timestamp: time.Now(),
	}
	if err := s.publishReviewEvent(ctx, event); err != nil {
		logger.Warn().Err(err).Str("review_id", review.ID.String()).Msg("failed to publish review created event")
	}

	return review, nil
}

// UpdateReview изменяет оценку и/или текст отзыва. Только автор.
// После смены оценки агрегаты пересчитываются
func (s *ReviewService) UpdateReview(ctx context.Context, reviewID, userID uuid.UUID, req *entity.UpdateReviewRequest) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if review.UserID != userID {
		return nil, ErrNotReviewAuthor
	}

	ratingChanged := false
	if req.Rating != 0 && req.Rating != review.Rating {
		review.Rating = req.Rating
		ratingChanged = true
	}
	if req.Comment != "" {
		review.Comment = req.Comment
	}
	review.UpdatedAt = time.Now()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	if ratingChanged {
		if err := s.RecomputeProductRating(ctx, review.ProductID); err != nil {
			logger.Error().Err(err).Str("product_id", review.ProductID.String()).Msg("failed to recompute product rating")
		}
	}

	return review, nil
}

// DeleteReview удаляет отзыв. Доступен автору и staff.
// После удаления агрегаты пересчитываются
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID uuid.UUID, isStaff bool) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if !isStaff && review.UserID != userID {
		return ErrNotReviewAuthor
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if err := s.RecomputeProductRating(ctx, review.ProductID); err != nil {
		logger.Error().Err(err).Str("product_id", review.ProductID.String()).Msg("failed to recompute product rating")
	}

	return nil
}

// MarkHelpful увеличивает счетчик полезности отзыва.
// Голоса не дедуплицируются, аутентификация не требуется
func (s *ReviewService) MarkHelpful(ctx context.Context, reviewID uuid.UUID) (*entity.Review, error) {
	if err := s.reviewRepo.IncrementHelpful(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to increment helpful count: %w", err)
	}

	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// CanReview сообщает, может ли пользователь оставить отзыв на товар,
// с расшифровкой: покупал ли и оставлял ли уже отзыв
func (s *ReviewService) CanReview(ctx context.Context, userID, productID uuid.UUID) (*entity.CanReviewResponse, error) {
	hasPurchased, err := s.orderRepo.HasDeliveredProduct(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase history: %w", err)
	}

	hasReviewed := false
	existing, err := s.reviewRepo.GetByUserAndProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if existing != nil {
		hasReviewed = true
	}

	return &entity.CanReviewResponse{
		CanReview:    hasPurchased && !hasReviewed,
		HasPurchased: hasPurchased,
		HasReviewed:  hasReviewed,
	}, nil
}

// ReviewableProducts возвращает товары из доставленных заказов пользователя,
// на которые он еще не оставил отзыв
func (s *ReviewService) ReviewableProducts(ctx context.Context, userID uuid.UUID) (*entity.ReviewableProductsResponse, error) {
	productIDs, err := s.orderRepo.DeliveredProductIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivered products: %w", err)
	}

	summaries := make([]entity.ProductSummary, 0, len(productIDs))
	for _, productID := range productIDs {
		existing, err := s.reviewRepo.GetByUserAndProduct(ctx, userID, productID)
		if err != nil && !errors.Is(err, repository.ErrReviewNotFound) {
			return nil, fmt.Errorf("failed to check existing review: %w", err)
		}
		if existing != nil {
			continue
		}

		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			// Товар мог быть удален после доставки заказа
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get product: %w", err)
		}

		summaries = append(summaries, entity.ProductSummary{
			ID:    product.ID,
			Name:  product.Name,
			Image: product.Image,
		})
	}

	return &entity.ReviewableProductsResponse{
		Count:    len(summaries),
		Products: summaries,
	}, nil
}

// RecomputeProductRating пересчитывает агрегаты рейтинга товара полным
// проходом по всем его отзывам. Средняя округляется до двух знаков,
// без отзывов агрегаты обнуляются. Кеш каталога сбрасывается
func (s *ReviewService) RecomputeProductRating(ctx context.Context, productID uuid.UUID) error {
	reviews, err := s.reviewRepo.GetByProductID(ctx, productID, 0)
	if err != nil {
		return fmt.Errorf("failed to get reviews for rating: %w", err)
	}

	average := decimal.Zero
	if len(reviews) > 0 {
		sum := decimal.Zero
		for _, review := range reviews {
			sum = sum.Add(decimal.NewFromInt(int64(review.Rating)))
		}
		average = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
	}

	if err := s.productRepo.UpdateRating(ctx, productID, average, len(reviews)); err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}

	if err := s.cache.DeleteProducts(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate products cache")
	}

	return nil
}

// publishReviewEvent отправляет событие об отзыве в Kafka
func (s *ReviewService) publishReviewEvent(ctx context.Context, event entity.ReviewEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	if err := s.kafkaProducer.PublishMessage(ctx, event.ReviewID.String(), eventData); err != nil {
		return fmt.Errorf("failed to publish to kafka: %w", err)
	}

	return nil
}

// summarize считает сводку по выборке отзывов
func summarize(reviews []entity.Review) entity.ReviewSummary {
	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}

	average := decimal.Zero
	if len(reviews) > 0 {
		sum := decimal.Zero
		for _, review := range reviews {
			distribution[review.Rating]++
			sum = sum.Add(decimal.NewFromInt(int64(review.Rating)))
		}
		average = sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(2)
	}

	return entity.ReviewSummary{
		Count:              len(reviews),
		AverageRating:      average,
		RatingDistribution: distribution,
	}
}

package handler

import (
	"errors"
	"net/http"
	"strconv"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/service"
	"lotusmart/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReviewHandler обрабатывает HTTP запросы для отзывов
type ReviewHandler struct {
	reviewService service.ReviewServiceInterface
	validator     *validator.Validate
}

// NewReviewHandler создает новый handler отзывов
func NewReviewHandler(reviewService service.ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// ListProductReviews обрабатывает GET /products/:id/reviews (публичный).
// Опциональный параметр limit ограничивает выборку
func (h *ReviewHandler) ListProductReviews(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product ID format",
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "invalid limit value",
			})
			return
		}
	}

	reviews, err := h.reviewService.ListProductReviews(c.Request.Context(), productID, limit)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
			return
		}
		logger.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get reviews",
		})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// CreateReview обрабатывает POST /products/:id/reviews.
// 403 - товар не покупался, 400 - отзыв уже есть
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product ID format",
		})
		return
	}

	var req entity.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), userID, productID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "product not found",
			})
		case errors.Is(err, service.ErrNotEligible):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error: "you can only review products from your delivered orders",
			})
		case errors.Is(err, service.ErrDuplicateReview):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "you have already reviewed this product",
			})
		default:
			logger.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to create review")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
				Error: "failed to create review",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, review)
}

// UpdateReview обрабатывает PUT/PATCH /reviews/:id (только автор)
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid review ID format",
		})
		return
	}

	var req entity.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error:   "validation failed",
			Message: err.Error(),
		})
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), reviewID, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "review not found",
			})
		case errors.Is(err, service.ErrNotReviewAuthor):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error: "you can only edit your own reviews",
			})
		default:
			logger.Error().Err(err).Str("review_id", reviewID.String()).Msg("Failed to update review")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
				Error: "failed to update review",
			})
		}
		return
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview обрабатывает DELETE /reviews/:id (автор или staff)
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid review ID format",
		})
		return
	}

	if err := h.reviewService.DeleteReview(c.Request.Context(), reviewID, userID, c.GetBool(ContextIsStaff)); err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "review not found",
			})
		case errors.Is(err, service.ErrNotReviewAuthor):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{
				Error: "you can only delete your own reviews",
			})
		default:
			logger.Error().Err(err).Str("review_id", reviewID.String()).Msg("Failed to delete review")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
				Error: "failed to delete review",
			})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkHelpful обрабатывает POST /reviews/:id/helpful (публичный)
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid review ID format",
		})
		return
	}

	review, err := h.reviewService.MarkHelpful(c.Request.Context(), reviewID)
	if err != nil {
		if errors.Is(err, service.ErrReviewNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "review not found",
			})
			return
		}
		logger.Error().Err(err).Str("review_id", reviewID.String()).Msg("Failed to mark review helpful")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to mark review helpful",
		})
		return
	}

	c.JSON(http.StatusOK, review)
}

// CanReview обрабатывает GET /products/:id/can-review
func (h *ReviewHandler) CanReview(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid product ID format",
		})
		return
	}

	result, err := h.reviewService.CanReview(c.Request.Context(), userID, productID)
	if err != nil {
		logger.Error().Err(err).Str("product_id", productID.String()).Msg("Failed to check review eligibility")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to check review eligibility",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReviewableProducts обрабатывает GET /products/reviewable-products
func (h *ReviewHandler) ReviewableProducts(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	result, err := h.reviewService.ReviewableProducts(c.Request.Context(), userID)
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list reviewable products")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get reviewable products",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/service"
	"lotusmart/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderHandler обрабатывает HTTP запросы для заказов
type OrderHandler struct {
	orderService service.OrderServiceInterface
	validator    *validator.Validate
}

// NewOrderHandler создает новый handler заказов
func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// CreateOrder обрабатывает POST /orders.
// user в ответе - ID из токена; user из тела запроса игнорируется
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	var req entity.CreateOrderRequest
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

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: stockErr.Error(),
			})
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "product not found",
			})
		default:
			logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to create order")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
				Error: "failed to create order",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrder обрабатывает GET /orders/:id.
// Чужой заказ для не-staff неотличим от несуществующего
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid order ID format",
		})
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID, c.GetBool(ContextIsStaff))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "order not found",
			})
			return
		}
		logger.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to get order")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get order",
		})
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListOrders обрабатывает GET /orders: свои для пользователя, все для staff
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID, c.GetBool(ContextIsStaff))
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to list orders")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get orders",
		})
		return
	}

	responses := make([]entity.OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, toOrderResponse(&orders[i]))
	}

	c.JSON(http.StatusOK, entity.OrderListResponse{
		Orders: responses,
		Total:  len(responses),
	})
}

// UpdateOrder обрабатывает PUT/PATCH /orders/admin/:id (только staff)
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid order ID format",
		})
		return
	}

	var req entity.AdminUpdateOrderRequest
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

	order, err := h.orderService.AdminUpdateOrder(c.Request.Context(), orderID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "order not found",
			})
		case errors.Is(err, service.ErrInvalidStatusTransition):
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "invalid status transition",
			})
		default:
			logger.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to update order")
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
				Error: "failed to update order",
			})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// DeleteOrder обрабатывает DELETE /orders/:id (владелец или staff)
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{
			Error: "invalid order ID format",
		})
		return
	}

	if err := h.orderService.DeleteOrder(c.Request.Context(), orderID, userID, c.GetBool(ContextIsStaff)); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "order not found",
			})
			return
		}
		logger.Error().Err(err).Str("order_id", orderID.String()).Msg("Failed to delete order")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to delete order",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// toOrderResponse преобразует заказ с позициями в ответ API
func toOrderResponse(order *entity.OrderWithItems) entity.OrderResponse {
	items := make([]entity.ItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, entity.ItemResponse{
			ID:         item.ID,
			Product:    item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}

	return entity.OrderResponse{
		ID:         order.ID,
		User:       order.UserID,
		CartItems:  items,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt.Format(time.RFC3339),
	}
}

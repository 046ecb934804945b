package handler

import (
	"errors"
	"net/http"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/service"
	"lotusmart/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UserHandler обрабатывает HTTP запросы аккаунтов
type UserHandler struct {
	userService service.UserServiceInterface
	validator   *validator.Validate
}

// NewUserHandler создает новый handler пользователей
func NewUserHandler(userService service.UserServiceInterface) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator.New(),
	}
}

// Register обрабатывает POST /users/register (публичный)
func (h *UserHandler) Register(c *gin.Context) {
	var req entity.RegisterRequest
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

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, entity.ErrorResponse{
				Error: "email already registered",
			})
			return
		}
		logger.Error().Err(err).Msg("Failed to register user")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to register user",
		})
		return
	}

	c.JSON(http.StatusCreated, user)
}

// IsAdmin обрабатывает GET /users/is-admin - флаг staff из токена, без похода в БД
func (h *UserHandler) IsAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"is_staff": c.GetBool(ContextIsStaff)})
}

// GetProfile обрабатывает GET /users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{
			Error: "authentication required",
		})
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{
				Error: "user not found",
			})
			return
		}
		logger.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to get profile")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{
			Error: "failed to get profile",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

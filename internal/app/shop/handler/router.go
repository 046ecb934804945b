package handler

import (
	"net/http"
	"time"

	"lotusmart/internal/app/shop/config"
	"lotusmart/pkg/logger"
	"lotusmart/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter собирает HTTP роутер со всеми маршрутами и middleware
func NewRouter(
	cfg *config.Config,
	productHandler *ProductHandler,
	orderHandler *OrderHandler,
	reviewHandler *ReviewHandler,
	userHandler *UserHandler,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	auth := NewAuthMiddleware(cfg.JWT.Secret)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Загруженные изображения товаров
	router.Static(cfg.Images.BaseURL, cfg.Images.Dir)

	// Каталог: чтение публично, запись только для staff
	products := router.Group("/products")
	{
		products.GET("", productHandler.ListProducts)
		products.GET("/search", productHandler.SearchProducts)
		products.GET("/:id", productHandler.GetProduct)
		products.GET("/:id/reviews", reviewHandler.ListProductReviews)

		products.POST("/:id/reviews", auth.Authenticate(), reviewHandler.CreateReview)
		products.GET("/:id/can-review", auth.Authenticate(), reviewHandler.CanReview)
		products.GET("/reviewable-products", auth.Authenticate(), reviewHandler.ReviewableProducts)

		admin := products.Group("/admin", auth.Authenticate(), auth.RequireStaff())
		{
			admin.POST("", productHandler.CreateProduct)
			admin.PUT("/:id", productHandler.UpdateProduct)
			admin.PATCH("/:id", productHandler.UpdateProduct)
			admin.DELETE("/:id", productHandler.DeleteProduct)
		}
	}

	// Заказы: все операции требуют аутентификации
	orders := router.Group("/orders", auth.Authenticate())
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.DELETE("/:id", orderHandler.DeleteOrder)

		admin := orders.Group("/admin", auth.RequireStaff())
		{
			admin.PUT("/:id", orderHandler.UpdateOrder)
			admin.PATCH("/:id", orderHandler.UpdateOrder)
		}
	}

	// Отзывы вне контекста товара
	reviews := router.Group("/reviews")
	{
		reviews.POST("/:id/helpful", reviewHandler.MarkHelpful)

		reviews.PUT("/:id", auth.Authenticate(), reviewHandler.UpdateReview)
		reviews.PATCH("/:id", auth.Authenticate(), reviewHandler.UpdateReview)
		reviews.DELETE("/:id", auth.Authenticate(), reviewHandler.DeleteReview)
	}

	// Аккаунты
	users := router.Group("/users")
	{
		users.POST("/register", userHandler.Register)
		users.GET("/profile", auth.Authenticate(), userHandler.GetProfile)
		users.GET("/is-admin", auth.Authenticate(), userHandler.IsAdmin)
	}

	return router
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lotusmart/internal/app/shop/config"
	"lotusmart/internal/app/shop/entity"
	"lotusmart/internal/app/shop/handler"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/internal/app/shop/service"
	"lotusmart/internal/app/shop/util"
	"lotusmart/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	logger.Init("lotusmart", getLogLevel())

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	db, err := connectDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := db.AutoMigrate(
		&entity.Product{},
		&entity.Order{},
		&entity.OrderItem{},
		&entity.Review{},
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}
	logger.Info().Msg("Database migrations completed")

	// Пользователи живут в отдельном пуле pgx (raw SQL, без GORM)
	pgPool, err := connectPgxPool(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create pgx pool")
	}
	defer pgPool.Close()

	if err := ensureUsersTable(pgPool); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create users table")
	}

	redisClient, err := util.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	orderProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
	defer orderProducer.Close()
	reviewProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.ReviewTopic)
	defer reviewProducer.Close()
	logger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka producers initialized")

	imageStore, err := util.NewLocalImageStore(cfg.Images.Dir, cfg.Images.BaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize image store")
	}

	// Репозитории
	repos := repository.NewRepositories(db)
	txManager := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(pgPool)

	// Сервисы
	catalogService := service.NewCatalogService(repos.Products, redisClient, imageStore, util.ProductsCacheTTL)
	orderService := service.NewOrderService(txManager, repos.Orders, orderProducer, redisClient)
	reviewService := service.NewReviewService(repos.Reviews, repos.Orders, repos.Products, reviewProducer, redisClient)
	userService := service.NewUserService(userRepo)

	// Handlers
	productHandler := handler.NewProductHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	userHandler := handler.NewUserHandler(userService)

	router := handler.NewRouter(cfg, productHandler, orderHandler, reviewHandler, userHandler)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown по SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server stopped")
}

// connectDB подключается к PostgreSQL через GORM с ретраями.
// TranslateError включен, чтобы нарушения уникальных индексов
// превращались в gorm.ErrDuplicatedKey
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for attempt := 1; attempt <= 5; attempt++ {
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
			TranslateError: true,
		})
		if err == nil {
			logger.Info().Str("host", cfg.Database.Host).Msg("Connected to PostgreSQL")
			return db, nil
		}

		logger.Warn().Err(err).Int("attempt", attempt).Msg("Database connection failed, retrying...")
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after retries: %w", err)
}

// connectPgxPool создает пул соединений pgx для репозитория пользователей
func connectPgxPool(cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// ensureUsersTable создает таблицу пользователей.
// Таблица вне GORM-миграций, так как репозиторий работает через pgx
func ensureUsersTable(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(100) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			is_staff BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func getLogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}

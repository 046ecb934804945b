package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lotusmart/internal/app/shop/config"
	"lotusmart/internal/app/shop/repository"
	"lotusmart/internal/app/shop/service"
	"lotusmart/internal/app/shop/util"
	"lotusmart/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ratingsync - обслуживающий процесс, по расписанию пересчитывающий
// агрегаты рейтинга всех товаров. Страхует от рассинхронизации
// после ручных правок в БД или пропущенных пересчетов
func main() {
	logger.Init("lotusmart-ratingsync", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	redisClient, err := util.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	repos := repository.NewRepositories(db)
	// Producer не нужен: пересчет агрегатов событий не порождает
	reviewService := service.NewReviewService(repos.Reviews, repos.Orders, repos.Products, nil, redisClient)

	c := cron.New()
	_, err = c.AddFunc(cfg.Cron.RatingSyncSchedule, func() {
		syncAllRatings(repos.Products, reviewService)
	})
	if err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.Cron.RatingSyncSchedule).Msg("Invalid cron schedule")
	}

	c.Start()
	logger.Info().Str("schedule", cfg.Cron.RatingSyncSchedule).Msg("Rating sync scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Stopping rating sync scheduler...")
	<-c.Stop().Done()
	logger.Info().Msg("Scheduler stopped")
}

// syncAllRatings пересчитывает агрегаты рейтинга каждого товара.
// Ошибка по одному товару не прерывает проход
func syncAllRatings(productRepo repository.ProductRepository, reviewService *service.ReviewService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()

	ids, err := productRepo.ListIDs(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list products for rating sync")
		return
	}

	failed := 0
	for _, id := range ids {
		if err := reviewService.RecomputeProductRating(ctx, id); err != nil {
			logger.Error().Err(err).Str("product_id", id.String()).Msg("Failed to recompute rating")
			failed++
		}
	}

	logger.Info().
		Int("products", len(ids)).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Rating sync completed")
}

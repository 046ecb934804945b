package config

import (
	"fmt"
	"os"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Images   ImagesConfig
	Cron     CronConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8080)
}

type DatabaseConfig struct {
	Host     string // Хост PostgreSQL
	Port     string // Порт PostgreSQL
	User     string // Имя пользователя БД
	Password string // Пароль БД
	DBName   string // Имя базы данных
	SSLMode  string // Режим SSL (disable/require/verify-full)
}

type RedisConfig struct {
	Addr     string // Адрес Redis (host:port)
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers     []string // Список брокеров Kafka (формат: host:port)
	OrderTopic  string   // Топик для событий ORDER_CREATED
	ReviewTopic string   // Топик для событий REVIEW_CREATED
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки токенов внешнего identity provider
}

type ImagesConfig struct {
	Dir     string // Каталог для загруженных изображений товаров
	BaseURL string // Базовый URL, по которому раздаются изображения
}

type CronConfig struct {
	RatingSyncSchedule string // Расписание пересчёта рейтингов (cron-формат)
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lotusmart"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Kafka: KafkaConfig{
			Brokers:     []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			OrderTopic:  getEnv("KAFKA_ORDER_TOPIC", "order_events"),
			ReviewTopic: getEnv("KAFKA_REVIEW_TOPIC", "review_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Images: ImagesConfig{
			Dir:     getEnv("IMAGES_DIR", "./media/products"),
			BaseURL: getEnv("IMAGES_BASE_URL", "/media/products"),
		},
		Cron: CronConfig{
			RatingSyncSchedule: getEnv("RATING_SYNC_SCHEDULE", "0 3 * * *"),
		},
	}, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

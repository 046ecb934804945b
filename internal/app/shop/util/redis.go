package util

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lotusmart/internal/app/shop/entity"
	"lotusmart/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

const productsCacheKey = "products:all"

// ProductsCacheTTL - время жизни кеша списка товаров
const ProductsCacheTTL = 10 * time.Minute

type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// NewRedisClientFromAddr создает клиент без проверки соединения (используется в тестах)
func NewRedisClientFromAddr(addr string) *RedisClient {
	return &RedisClient{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// SetProducts кеширует список товаров каталога
func (r *RedisClient) SetProducts(ctx context.Context, products []entity.Product, ttl time.Duration) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to marshal products: %w", err)
	}

	if err := r.client.Set(ctx, productsCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set products in cache: %w", err)
	}

	return nil
}

// GetProducts возвращает закешированный список товаров.
// Возвращает nil, nil при промахе кеша
func (r *RedisClient) GetProducts(ctx context.Context) ([]entity.Product, error) {
	data, err := r.client.Get(ctx, productsCacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss("products")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get products from cache: %w", err)
	}

	var products []entity.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}

	metrics.RecordCacheHit("products")
	return products, nil
}

// DeleteProducts инвалидирует кеш списка товаров
func (r *RedisClient) DeleteProducts(ctx context.Context) error {
	if err := r.client.Del(ctx, productsCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to delete products from cache: %w", err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

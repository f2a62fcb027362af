package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"launchpad/pkg/metrics"
	"launchpad/products-service/internal/app/products/entity"

	"github.com/redis/go-redis/v9"
)

const (
	serviceName = "products-service"

	categoryStatsKey = "categories:stats"
	// blacklistPrefix совпадает с ключами, которые пишет Auth Service при logout
	blacklistPrefix = "blacklist:"
)

type RedisClient struct {
	client *redis.Client
}

// NewRedisClient подключается к Redis и проверяет соединение
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

// SetCategoryStats кеширует статистику категорий как JSON
func (r *RedisClient) SetCategoryStats(ctx context.Context, stats []entity.CategoryStat, ttl time.Duration) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal category stats: %w", err)
	}

	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	err = r.client.Set(ctx, categoryStatsKey, data, ttl).Err()
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to set category stats in cache: %w", err)
	}

	return nil
}

// GetCategoryStats возвращает nil, nil при промахе кеша
func (r *RedisClient) GetCategoryStats(ctx context.Context) ([]entity.CategoryStat, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := r.client.Get(ctx, categoryStatsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			timer.Done(nil)
			metrics.RecordCacheMiss(serviceName, "categories")
			return nil, nil
		}
		timer.Done(err)
		return nil, fmt.Errorf("failed to get category stats from cache: %w", err)
	}
	timer.Done(nil)

	var stats []entity.CategoryStat
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal category stats: %w", err)
	}

	metrics.RecordCacheHit(serviceName, "categories")
	return stats, nil
}

func (r *RedisClient) DeleteCategoryStats(ctx context.Context) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	err := r.client.Del(ctx, categoryStatsKey).Err()
	timer.Done(err)
	if err != nil {
		return fmt.Errorf("failed to delete category stats from cache: %w", err)
	}
	return nil
}

// IsBlacklisted проверяет, отозван ли access токен
func (r *RedisClient) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpExists)
	exists, err := r.client.Exists(ctx, blacklistPrefix+token).Result()
	timer.Done(err)
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}

	return exists > 0, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

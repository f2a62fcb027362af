package util

import (
	"context"
	"time"

	"launchpad/products-service/internal/app/products/entity"
)

// CategoryCache интерфейс кеша статистики категорий
// Используется для dependency injection и упрощения тестирования
type CategoryCache interface {
	SetCategoryStats(ctx context.Context, stats []entity.CategoryStat, ttl time.Duration) error
	GetCategoryStats(ctx context.Context) ([]entity.CategoryStat, error)
	DeleteCategoryStats(ctx context.Context) error
}

// TokenBlacklist проверяет отозванные Auth Service токены
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

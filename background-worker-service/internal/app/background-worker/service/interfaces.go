package service

import (
	"context"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
)

// ReconcileServiceInterface определяет сверку upvote_count с реестром голосов
type ReconcileServiceInterface interface {
	// ReconcileAll проверяет все продукты и исправляет расхождения
	ReconcileAll(ctx context.Context, trigger string) (*entity.ReconcileRun, error)
	// ReconcileProduct проверяет один продукт после события голосования.
	// Возвращает nil, если счетчик верен
	ReconcileProduct(ctx context.Context, productID string) (*entity.ReconcileRun, error)
	// ListRuns возвращает последние запуски сверки
	ListRuns(ctx context.Context, limit int) ([]entity.ReconcileRun, error)
}

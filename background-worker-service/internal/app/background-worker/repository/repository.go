package repository

import (
	"context"
	"errors"

	"launchpad/background-worker-service/internal/app/background-worker/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const serviceName = "background-worker"

var ErrProductNotFound = errors.New("product not found")

// CounterRepository читает реестр голосов и исправляет upvote_count в MongoDB
type CounterRepository interface {
	// FindDrift возвращает продукты с расхождением и общее число проверенных продуктов
	FindDrift(ctx context.Context) ([]entity.CounterDrift, int64, error)

	// FindProductDrift возвращает расхождение одного продукта или nil, если счетчик верен
	FindProductDrift(ctx context.Context, productID primitive.ObjectID) (*entity.CounterDrift, error)

	// SetUpvoteCount записывает actual, только если счетчик все еще равен stored.
	// false означает, что счетчик успел измениться и исправление пропущено
	SetUpvoteCount(ctx context.Context, productID primitive.ObjectID, stored, actual int64) (bool, error)
}

// ReconcileRunRepository - журнал запусков сверки в PostgreSQL
type ReconcileRunRepository interface {
	Create(ctx context.Context, run *entity.ReconcileRun) error

	// ListRecent возвращает последние запуски, новые первыми
	ListRecent(ctx context.Context, limit int) ([]entity.ReconcileRun, error)
}

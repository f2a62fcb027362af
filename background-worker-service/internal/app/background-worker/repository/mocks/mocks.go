package mocks

import (
	"context"

	"launchpad/background-worker-service/internal/app/background-worker/entity"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockCounterRepository мок для CounterRepository
type MockCounterRepository struct {
	mock.Mock
}

func (m *MockCounterRepository) FindDrift(ctx context.Context) ([]entity.CounterDrift, int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]entity.CounterDrift), args.Get(1).(int64), args.Error(2)
}

func (m *MockCounterRepository) FindProductDrift(ctx context.Context, productID primitive.ObjectID) (*entity.CounterDrift, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CounterDrift), args.Error(1)
}

func (m *MockCounterRepository) SetUpvoteCount(ctx context.Context, productID primitive.ObjectID, stored, actual int64) (bool, error) {
	args := m.Called(ctx, productID, stored, actual)
	return args.Bool(0), args.Error(1)
}

// MockReconcileRunRepository мок для ReconcileRunRepository
type MockReconcileRunRepository struct {
	mock.Mock
}

func (m *MockReconcileRunRepository) Create(ctx context.Context, run *entity.ReconcileRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReconcileRunRepository) ListRecent(ctx context.Context, limit int) ([]entity.ReconcileRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReconcileRun), args.Error(1)
}

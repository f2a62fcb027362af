package processor

import (
	"context"

	"launchpad/background-worker-service/internal/app/background-worker/entity"

	"github.com/stretchr/testify/mock"
)

// MockReconcileService мок для ReconcileServiceInterface
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) ReconcileAll(ctx context.Context, trigger string) (*entity.ReconcileRun, error) {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconcileRun), args.Error(1)
}

func (m *MockReconcileService) ReconcileProduct(ctx context.Context, productID string) (*entity.ReconcileRun, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ReconcileRun), args.Error(1)
}

func (m *MockReconcileService) ListRuns(ctx context.Context, limit int) ([]entity.ReconcileRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.ReconcileRun), args.Error(1)
}

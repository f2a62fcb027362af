package repository

import (
	"context"
	"fmt"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
	"launchpad/pkg/metrics"

	"gorm.io/gorm"
)

const reconcileRunsTable = "reconcile_runs"

type reconcileRunRepository struct {
	db *gorm.DB
}

// NewReconcileRunRepository создает журнал запусков сверки
func NewReconcileRunRepository(db *gorm.DB) ReconcileRunRepository {
	return &reconcileRunRepository{db: db}
}

func (r *reconcileRunRepository) Create(ctx context.Context, run *entity.ReconcileRun) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, reconcileRunsTable)

	result := r.db.WithContext(ctx).Create(run)
	timer.Done(result.Error)
	if result.Error != nil {
		return fmt.Errorf("failed to save reconcile run: %w", result.Error)
	}

	return nil
}

func (r *reconcileRunRepository) ListRecent(ctx context.Context, limit int) ([]entity.ReconcileRun, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, reconcileRunsTable)

	runs := []entity.ReconcileRun{}
	result := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs)
	timer.Done(result.Error)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list reconcile runs: %w", result.Error)
	}

	return runs, nil
}

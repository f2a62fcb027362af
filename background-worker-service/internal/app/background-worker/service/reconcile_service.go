package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
	"launchpad/background-worker-service/internal/app/background-worker/repository"
	"launchpad/pkg/logger"
	"launchpad/pkg/metrics"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidProductID = errors.New("invalid product id")
	ErrProductNotFound  = errors.New("product not found")
)

// ReconcileService пересчитывает upvote_count по реестру голосов.
// Счетчик в документе продукта - денормализованная копия, реестр всегда прав
type ReconcileService struct {
	counters repository.CounterRepository
	runs     repository.ReconcileRunRepository
	now      func() time.Time
}

func NewReconcileService(counters repository.CounterRepository, runs repository.ReconcileRunRepository) *ReconcileService {
	return &ReconcileService{
		counters: counters,
		runs:     runs,
		now:      time.Now,
	}
}

// ReconcileAll находит все расхождения одним агрегирующим запросом и исправляет их.
// Ошибка исправления одного продукта не останавливает остальные
func (s *ReconcileService) ReconcileAll(ctx context.Context, trigger string) (*entity.ReconcileRun, error) {
	run := s.startRun(trigger, "")

	drifts, checked, err := s.counters.FindDrift(ctx)
	if err != nil {
		s.finishRun(ctx, run, err)
		return run, fmt.Errorf("failed to find counter drift: %w", err)
	}

	run.Checked = checked
	run.Drifted = int64(len(drifts))

	var failed int
	var lastErr error
	for _, drift := range drifts {
		if err := s.repair(ctx, run, drift); err != nil {
			failed++
			lastErr = err
			logger.Error().
				Err(err).
				Str("product_id", drift.ProductID.Hex()).
				Msg("Failed to correct upvote counter")
		}
	}

	if lastErr != nil {
		err = fmt.Errorf("%d of %d counters not corrected: %w", failed, len(drifts), lastErr)
	}
	s.finishRun(ctx, run, err)

	logger.Info().
		Str("trigger", trigger).
		Int64("checked", run.Checked).
		Int64("drifted", run.Drifted).
		Int64("corrected", run.Corrected).
		Str("status", run.Status).
		Msg("Upvote counter reconciliation finished")

	return run, err
}

// ReconcileProduct проверяет счетчик одного продукта.
// Запуск попадает в журнал, только если было что исправлять
func (s *ReconcileService) ReconcileProduct(ctx context.Context, productID string) (*entity.ReconcileRun, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, ErrInvalidProductID
	}

	run := s.startRun(entity.TriggerEvent, productID)

	drift, err := s.counters.FindProductDrift(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			// Продукт удален после события, голоса удалены вместе с ним
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to check product counter: %w", err)
	}

	run.Checked = 1
	if drift == nil {
		return nil, nil
	}
	run.Drifted = 1

	err = s.repair(ctx, run, *drift)
	s.finishRun(ctx, run, err)
	if err != nil {
		return run, err
	}

	logger.Info().
		Str("product_id", productID).
		Int64("stored", drift.Stored).
		Int64("actual", drift.Actual).
		Msg("Upvote counter corrected")

	return run, nil
}

func (s *ReconcileService) ListRuns(ctx context.Context, limit int) ([]entity.ReconcileRun, error) {
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconcile runs: %w", err)
	}
	return runs, nil
}

// repair записывает значение из реестра. Если счетчик уже изменил параллельный голос,
// исправление пропускается: следующее событие или запуск по расписанию проверит его снова
func (s *ReconcileService) repair(ctx context.Context, run *entity.ReconcileRun, drift entity.CounterDrift) error {
	updated, err := s.counters.SetUpvoteCount(ctx, drift.ProductID, drift.Stored, drift.Actual)
	if err != nil {
		return err
	}
	if !updated {
		logger.Debug().
			Str("product_id", drift.ProductID.Hex()).
			Msg("Upvote counter changed concurrently, skipping")
		return nil
	}

	run.Corrected += drift.Delta()
	metrics.WorkerCountersCorrected.Inc()
	return nil
}

func (s *ReconcileService) startRun(trigger, productID string) *entity.ReconcileRun {
	return &entity.ReconcileRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		ProductID: productID,
		StartedAt: s.now(),
	}
}

// finishRun выставляет статус, пишет метрики и сохраняет запуск.
// Ошибка записи журнала не влияет на результат сверки
func (s *ReconcileService) finishRun(ctx context.Context, run *entity.ReconcileRun, err error) {
	run.FinishedAt = s.now()
	run.Status = entity.RunStatusSuccess
	if err != nil {
		run.Status = entity.RunStatusFailed
		run.Error = err.Error()
	}

	metrics.WorkerReconcileRuns.WithLabelValues(run.Trigger, run.Status).Inc()
	metrics.WorkerReconcileDuration.WithLabelValues(run.Trigger).
		Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	if saveErr := s.runs.Create(ctx, run); saveErr != nil {
		logger.Error().
			Err(saveErr).
			Str("run_id", run.ID.String()).
			Msg("Failed to save reconcile run")
	}
}

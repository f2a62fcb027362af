package processor

import (
	"context"

	"launchpad/background-worker-service/internal/app/background-worker/entity"
	"launchpad/background-worker-service/internal/app/background-worker/service"
	"launchpad/pkg/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger направляет сообщения cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// CronScheduler запускает полную сверку счетчиков по расписанию.
// Следующий запуск пропускается, если предыдущий еще идет
type CronScheduler struct {
	cron         *cron.Cron
	reconcileSvc service.ReconcileServiceInterface
}

func NewCronScheduler(reconcileSvc service.ReconcileServiceInterface) *CronScheduler {
	l := cronLogger{}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)

	return &CronScheduler{
		cron:         c,
		reconcileSvc: reconcileSvc,
	}
}

// Start регистрирует задачу и выполняет первую сверку сразу, не дожидаясь расписания
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.reconcile(ctx, entity.TriggerCron)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("Cron scheduler started")

	s.reconcile(ctx, entity.TriggerStartup)

	return nil
}

func (s *CronScheduler) reconcile(ctx context.Context, trigger string) {
	if _, err := s.reconcileSvc.ReconcileAll(ctx, trigger); err != nil {
		logger.Error().
			Err(err).
			Str("trigger", trigger).
			Msg("Upvote counter reconciliation failed")
	}
}

// Stop ждет завершения текущей сверки
func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	<-s.cron.Stop().Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

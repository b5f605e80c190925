package processor

import (
	"context"
	"fmt"

	"demeter/background-worker-service/internal/app/background-worker/service"
	"demeter/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler запускает фоновые чистки по расписанию
type CronScheduler struct {
	cron            *cron.Cron
	housekeepingSvc service.HousekeepingServiceInterface
}

func NewCronScheduler(housekeepingSvc service.HousekeepingServiceInterface) *CronScheduler {
	return &CronScheduler{
		cron:            cron.New(),
		housekeepingSvc: housekeepingSvc,
	}
}

// Start регистрирует задачи и запускает планировщик:
// tokenSweepSchedule - чистка протухших refresh токенов,
// auditRetentionSchedule - обрезка журнала аудита по сроку хранения
func (s *CronScheduler) Start(ctx context.Context, tokenSweepSchedule, auditRetentionSchedule string) error {
	logger.Info().
		Str("token_sweep", tokenSweepSchedule).
		Str("audit_retention", auditRetentionSchedule).
		Msg("Starting cron scheduler")

	_, err := s.cron.AddFunc(tokenSweepSchedule, func() {
		logger.Info().Msg("Cron job triggered: sweeping expired refresh tokens")

		if _, err := s.housekeepingSvc.SweepExpiredTokens(ctx); err != nil {
			logger.Error().Err(err).Msg("Token sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule token sweep: %w", err)
	}

	_, err = s.cron.AddFunc(auditRetentionSchedule, func() {
		logger.Info().Msg("Cron job triggered: trimming audit log")

		if _, err := s.housekeepingSvc.TrimAuditLog(ctx); err != nil {
			logger.Error().Err(err).Msg("Audit log trim failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule audit retention: %w", err)
	}

	s.cron.Start()
	logger.Info().Msg("Cron scheduler started")

	// Начальная чистка токенов при старте, не дожидаясь расписания
	logger.Info().Msg("Performing initial token sweep...")
	if _, err := s.housekeepingSvc.SweepExpiredTokens(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial token sweep failed")
	}

	return nil
}

func (s *CronScheduler) Stop() {
	logger.Info().Msg("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("Cron scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}

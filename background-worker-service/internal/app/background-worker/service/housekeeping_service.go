package service

import (
	"context"
	"fmt"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/repository"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"
)

// HousekeepingService выполняет регулярные чистки хранилищ:
// удаление протухших refresh токенов из PostgreSQL и обрезку
// журнала аудита в MongoDB по сроку хранения
type HousekeepingService struct {
	tokenRepo     repository.TokenRepository
	auditRepo     repository.AuditLogRepository
	retentionDays int
}

// NewHousekeepingService создает новый сервис фоновых чисток
func NewHousekeepingService(
	tokenRepo repository.TokenRepository,
	auditRepo repository.AuditLogRepository,
	retentionDays int,
) *HousekeepingService {
	return &HousekeepingService{
		tokenRepo:     tokenRepo,
		auditRepo:     auditRepo,
		retentionDays: retentionDays,
	}
}

// SweepExpiredTokens удаляет истекшие refresh токены и возвращает
// количество удалённых. Вызывается по cron расписанию и один раз при
// старте воркера. Повторный запуск безопасен.
func (s *HousekeepingService) SweepExpiredTokens(ctx context.Context) (int64, error) {
	timer := metrics.NewSweepTimer("token_cleanup")

	deleted, err := s.tokenRepo.DeleteExpired(ctx)
	if err != nil {
		timer.Error()
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	timer.Success()
	metrics.WorkerExpiredTokensDeleted.Add(float64(deleted))

	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("Expired refresh tokens swept")
	} else {
		logger.Debug().Msg("No expired refresh tokens to sweep")
	}

	return deleted, nil
}

// TrimAuditLog удаляет записи журнала аудита старше срока хранения
// и возвращает количество удалённых
func (s *HousekeepingService) TrimAuditLog(ctx context.Context) (int64, error) {
	timer := metrics.NewSweepTimer("audit_retention")

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.auditRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		timer.Error()
		return 0, fmt.Errorf("failed to trim audit log: %w", err)
	}

	timer.Success()

	// Чистка уже прошла, поэтому ошибку подсчёта остатка только логируем
	remaining, err := s.auditRepo.Count(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to count remaining audit log entries")
		return deleted, nil
	}

	logger.Info().
		Int64("deleted", deleted).
		Int64("remaining", remaining).
		Time("cutoff", cutoff).
		Msg("Audit log trimmed")

	return deleted, nil
}

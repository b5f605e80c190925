package service

import (
	"context"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"
)

// HousekeepingServiceInterface определяет интерфейс фоновых чисток
type HousekeepingServiceInterface interface {
	// SweepExpiredTokens удаляет истекшие refresh токены
	SweepExpiredTokens(ctx context.Context) (int64, error)
	// TrimAuditLog удаляет записи журнала аудита старше срока хранения
	TrimAuditLog(ctx context.Context) (int64, error)
}

// StatsServiceInterface определяет интерфейс обработки событий классификаций
type StatsServiceInterface interface {
	// ProcessEvent обрабатывает событие классификации из Kafka
	ProcessEvent(ctx context.Context, event *entity.ClassificationEvent) error
	// DailyCount возвращает суточный счётчик типа зерна
	DailyCount(ctx context.Context, grainType string, date time.Time) (int64, error)
}

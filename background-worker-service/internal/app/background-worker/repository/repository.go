package repository

import (
	"context"
	"time"
)

// TokenRepository выполняет чистку таблицы refresh_tokens auth-service
type TokenRepository interface {
	// DeleteExpired удаляет токены с истёкшим сроком действия и
	// возвращает количество удалённых. Повторный запуск безопасен.
	DeleteExpired(ctx context.Context) (int64, error)

	// CountExpired возвращает количество токенов, подлежащих удалению
	CountExpired(ctx context.Context) (int64, error)
}

// AuditLogRepository обслуживает журнал аудита в MongoDB
type AuditLogRepository interface {
	// DeleteOlderThan удаляет записи журнала старше cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Count возвращает общее количество записей журнала
	Count(ctx context.Context) (int64, error)
}

// StatsRepository хранит суточные счётчики классификаций в Redis
type StatsRepository interface {
	// IncrementDaily увеличивает счётчик типа зерна за дату и
	// продлевает TTL ключа
	IncrementDaily(ctx context.Context, grainType string, date time.Time) (int64, error)

	// GetDaily возвращает значение счётчика; 0, если ключа нет
	GetDaily(ctx context.Context, grainType string, date time.Time) (int64, error)
}

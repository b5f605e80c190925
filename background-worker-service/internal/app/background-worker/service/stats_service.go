package service

import (
	"context"
	"fmt"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"
	"demeter/background-worker-service/internal/app/background-worker/repository"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"
)

// StatsService агрегирует события классификаций в суточные счётчики
// по типам зерна
type StatsService struct {
	statsRepo repository.StatsRepository
}

// NewStatsService создает новый сервис статистики классификаций
func NewStatsService(statsRepo repository.StatsRepository) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
	}
}

// ProcessEvent обрабатывает событие классификации из Kafka.
// Неизвестные типы событий пропускаются без ошибки, чтобы consumer
// закоммитил offset и не перечитывал их бесконечно.
func (s *StatsService) ProcessEvent(ctx context.Context, event *entity.ClassificationEvent) error {
	if event.EventType != entity.EventClassificationCreated {
		logger.Warn().
			Str("event_type", event.EventType).
			Str("classification_id", event.ClassificationID.String()).
			Msg("Skipping event of unknown type")
		return nil
	}

	// Событие без типа зерна повторная обработка не исправит,
	// поэтому тоже пропускаем с коммитом
	if event.GrainType == "" {
		metrics.WorkerEventsProcessed.WithLabelValues("failed").Inc()
		logger.Error().
			Str("classification_id", event.ClassificationID.String()).
			Msg("Skipping classification event without grain type")
		return nil
	}

	// События без даты относим к текущим суткам
	date := event.CreatedAt
	if date.IsZero() {
		date = time.Now()
	}

	total, err := s.statsRepo.IncrementDaily(ctx, event.GrainType, date)
	if err != nil {
		metrics.WorkerEventsProcessed.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to increment daily counter: %w", err)
	}

	metrics.WorkerEventsProcessed.WithLabelValues("success").Inc()
	metrics.WorkerClassificationsCounted.WithLabelValues(event.GrainType).Inc()

	logger.Info().
		Str("classification_id", event.ClassificationID.String()).
		Str("grain_type", event.GrainType).
		Float64("confidence_score", event.ConfidenceScore).
		Int64("daily_total", total).
		Msg("Classification event counted")

	return nil
}

// DailyCount возвращает суточный счётчик типа зерна за дату
func (s *StatsService) DailyCount(ctx context.Context, grainType string, date time.Time) (int64, error) {
	count, err := s.statsRepo.GetDaily(ctx, grainType, date)
	if err != nil {
		return 0, fmt.Errorf("failed to get daily counter: %w", err)
	}

	return count, nil
}

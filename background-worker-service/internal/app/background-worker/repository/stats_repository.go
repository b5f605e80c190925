package repository

import (
	"context"
	"fmt"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"
	"demeter/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

// statsRepository ведёт суточные счётчики классификаций в Redis
type statsRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsRepository создает репозиторий суточной статистики
func NewStatsRepository(client *redis.Client, ttl time.Duration) StatsRepository {
	return &statsRepository{
		client: client,
		ttl:    ttl,
	}
}

// IncrementDaily атомарно увеличивает счётчик и продлевает TTL ключа.
// INCR и EXPIRE отправляются одним pipeline, чтобы счётчик не остался
// без срока жизни при обрыве между командами.
func (r *statsRepository) IncrementDaily(ctx context.Context, grainType string, date time.Time) (int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpIncr)
	defer timer.ObserveDuration()

	key := entity.StatsKey(grainType, date)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpIncr)
		return 0, fmt.Errorf("failed to increment stats counter: %w", err)
	}

	return incr.Val(), nil
}

// GetDaily возвращает значение суточного счётчика; 0, если ключа нет
func (r *statsRepository) GetDaily(ctx context.Context, grainType string, date time.Time) (int64, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	key := entity.StatsKey(grainType, date)

	count, err := r.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return 0, fmt.Errorf("failed to get stats counter: %w", err)
	}

	return count, nil
}

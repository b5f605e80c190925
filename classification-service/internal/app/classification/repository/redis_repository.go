package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const listCacheKeyPrefix = "classifications:user"

type redisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisListCache создает Redis-кэш страниц списков классификаций.
// Записи живут недолго и инвалидируются при любой записи владельца.
func NewRedisListCache(client *redis.Client, ttl time.Duration) ListCacheRepository {
	return &redisListCache{client: client, ttl: ttl}
}

// ListKey строит ключ кэша из всех параметров выборки
func (r *redisListCache) ListKey(userID uuid.UUID, skip, limit int, grainType string) string {
	if grainType == "" {
		grainType = "all"
	}
	return fmt.Sprintf("%s:%s:%d:%d:%s", listCacheKeyPrefix, userID, skip, limit, grainType)
}

// GetList читает страницу из кэша. Промах - не ошибка, возвращается nil.
func (r *redisListCache) GetList(ctx context.Context, key string) (*entity.ClassificationListResponse, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	defer timer.ObserveDuration()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss(serviceName, listCacheKeyPrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get list from cache: %w", err)
	}

	var list entity.ClassificationListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached list: %w", err)
	}

	metrics.RecordCacheHit(serviceName, listCacheKeyPrefix)
	return &list, nil
}

// SetList кладёт страницу в кэш с настроенным TTL
func (r *redisListCache) SetList(ctx context.Context, key string, list *entity.ClassificationListResponse) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSet)
	defer timer.ObserveDuration()

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal list for cache: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set list in cache: %w", err)
	}

	return nil
}

// InvalidateUser удаляет все закэшированные страницы пользователя.
// Ключи перебираются через SCAN, чтобы не блокировать Redis.
func (r *redisListCache) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	pattern := fmt.Sprintf("%s:%s:*", listCacheKeyPrefix, userID)

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	return nil
}

type redisDenylistRepository struct {
	client *redis.Client
}

// NewRedisDenylistRepository создает читателя denylist отозванных access
// токенов. Записи ведёт auth-service в той же базе Redis.
func NewRedisDenylistRepository(client *redis.Client) DenylistRepository {
	return &redisDenylistRepository{client: client}
}

// IsDenylisted проверяет, был ли access токен отозван
func (r *redisDenylistRepository) IsDenylisted(ctx context.Context, token string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpExists)
	defer timer.ObserveDuration()

	key := fmt.Sprintf("denylist:%s", token)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpExists)
		return false, fmt.Errorf("failed to check denylist: %w", err)
	}

	return exists > 0, nil
}

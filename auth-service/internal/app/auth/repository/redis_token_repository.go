package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisDenylistRepository struct {
	client *redis.Client
}

// NewRedisDenylistRepository создает Redis-реализацию denylist для
// отозванных access токенов. Токены живут в denylist ровно столько,
// сколько им оставалось до истечения, дальше Redis удаляет их сам.
func NewRedisDenylistRepository(client *redis.Client) DenylistRepository {
	return &redisDenylistRepository{client: client}
}

// AddToDenylist помечает access токен отозванным на остаток его TTL
func (r *redisDenylistRepository) AddToDenylist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Токен уже истёк, проверка подписи его и так не пропустит
		return nil
	}

	key := fmt.Sprintf("denylist:%s", token)

	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to denylist: %w", err)
	}

	return nil
}

// IsDenylisted проверяет, был ли access токен отозван
func (r *redisDenylistRepository) IsDenylisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("denylist:%s", token)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check denylist: %w", err)
	}

	return exists > 0, nil
}

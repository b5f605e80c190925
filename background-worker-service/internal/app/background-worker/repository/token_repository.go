package repository

import (
	"context"
	"fmt"
	"time"

	"demeter/pkg/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

const serviceName = "background-worker"

// tokenRepository чистит таблицу refresh_tokens через pgx.
// Схему владеет auth-service, воркер только удаляет протухшие записи.
type tokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository создает репозиторий чистки refresh токенов
func NewTokenRepository(db *pgxpool.Pool) TokenRepository {
	return &tokenRepository{db: db}
}

// DeleteExpired удаляет истекшие токены независимо от флага отзыва.
// Одно атомарное DELETE, поэтому параллельные запуски не мешают друг
// другу: каждый удалит только то, что ещё осталось.
func (r *tokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, "refresh_tokens")
	defer timer.ObserveDuration()

	result, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountExpired возвращает количество истекших токенов, ещё не удалённых
func (r *tokenRepository) CountExpired(ctx context.Context) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "refresh_tokens")
	defer timer.ObserveDuration()

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_tokens WHERE expires_at < $1`, time.Now()).Scan(&count)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return 0, fmt.Errorf("failed to count expired refresh tokens: %w", err)
	}

	return count, nil
}

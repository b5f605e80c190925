package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"demeter/auth-service/internal/app/auth/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)

const refreshTokenColumns = `id, user_id, token, expires_at, created_at, is_revoked, revoked_at, user_agent, ip_address`

type tokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository создает новый репозиторий refresh токенов
func NewTokenRepository(db *pgxpool.Pool) TokenRepository {
	return &tokenRepository{db: db}
}

// Save сохраняет refresh токен вместе с метаданными клиента
func (r *tokenRepository) Save(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time, meta entity.ClientMeta) (int64, error) {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at, created_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, userID, token, expiresAt, time.Now(), meta.UserAgent, meta.IPAddress).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return id, nil
}

// GetByToken получает запись refresh токена, включая отозванные и истекшие
func (r *tokenRepository) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE token = $1`

	var rt entity.RefreshToken
	err := r.db.QueryRow(ctx, query, token).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.IsRevoked,
		&rt.RevokedAt,
		&rt.UserAgent,
		&rt.IPAddress,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &rt, nil
}

// IsValid проверяет, что токен существует, не отозван и не истёк
func (r *tokenRepository) IsValid(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM refresh_tokens
			WHERE token = $1 AND is_revoked = FALSE AND expires_at > $2
		)
	`

	var valid bool
	if err := r.db.QueryRow(ctx, query, token, time.Now()).Scan(&valid); err != nil {
		return false, fmt.Errorf("failed to check refresh token validity: %w", err)
	}

	return valid, nil
}

// Revoke отзывает конкретный refresh токен. Повторный отзыв идемпотентен:
// первоначальное время отзыва сохраняется.
func (r *tokenRepository) Revoke(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = COALESCE(revoked_at, $2)
		WHERE token = $1
	`

	result, err := r.db.Exec(ctx, query, token, time.Now())
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRefreshTokenNotFound
	}

	return nil
}

// RevokeAllByUser отзывает все действующие refresh токены пользователя
// и возвращает количество отозванных
func (r *tokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = TRUE, revoked_at = $2
		WHERE user_id = $1 AND is_revoked = FALSE
	`

	result, err := r.db.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteExpired удаляет истекшие токены независимо от флага отзыва.
// Повторный запуск безопасен.
func (r *tokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := r.db.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListByUser получает токены пользователя, новые первыми.
// При onlyValid=true отозванные и истекшие отфильтровываются.
func (r *tokenRepository) ListByUser(ctx context.Context, userID uuid.UUID, onlyValid bool) ([]entity.RefreshToken, error) {
	query := `SELECT ` + refreshTokenColumns + ` FROM refresh_tokens WHERE user_id = $1`
	args := []interface{}{userID}

	if onlyValid {
		query += ` AND is_revoked = FALSE AND expires_at > $2`
		args = append(args, time.Now())
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []entity.RefreshToken
	for rows.Next() {
		var rt entity.RefreshToken
		err := rows.Scan(
			&rt.ID,
			&rt.UserID,
			&rt.Token,
			&rt.ExpiresAt,
			&rt.CreatedAt,
			&rt.IsRevoked,
			&rt.RevokedAt,
			&rt.UserAgent,
			&rt.IPAddress,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refresh tokens: %w", err)
	}

	return tokens, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type accessRepository struct {
	db *pgxpool.Pool
}

// NewAccessRepository создает репозиторий субъектов поверх схемы
// auth-service. Сервис классификаций только читает пользователей,
// роли и разрешения - управляет ими auth-service.
func NewAccessRepository(db *pgxpool.Pool) AccessRepository {
	return &accessRepository{db: db}
}

// GetPrincipal загружает пользователя вместе с его ролями и объединением
// разрешений. Помеченные удалёнными пользователи считаются отсутствующими.
func (r *accessRepository) GetPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, "users")
	defer timer.ObserveDuration()

	principal := entity.Principal{UserID: userID}

	userQuery := `
		SELECT email, name, is_active
		FROM users
		WHERE id = $1 AND is_deleted = FALSE
	`

	err := r.db.QueryRow(ctx, userQuery, userID).Scan(
		&principal.Email,
		&principal.Name,
		&principal.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	roles, err := r.getRoles(ctx, userID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, err
	}
	principal.Roles = roles

	permissions, err := r.getPermissions(ctx, userID)
	if err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, err
	}
	principal.Permissions = permissions

	for _, role := range roles {
		if role == entity.RoleAdmin {
			principal.IsAdmin = true
			break
		}
	}

	return &principal, nil
}

func (r *accessRepository) getRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT r.name
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	return r.queryNames(ctx, query, userID)
}

// getPermissions получает объединение разрешений всех ролей пользователя
// одним запросом. DISTINCT схлопывает разрешение, выданное через несколько
// ролей, в одно.
func (r *accessRepository) getPermissions(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		INNER JOIN roles_permissions rp ON p.id = rp.permission_id
		INNER JOIN user_roles ur ON rp.role_id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY p.name
	`

	return r.queryNames(ctx, query, userID)
}

func (r *accessRepository) queryNames(ctx context.Context, query string, userID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating names: %w", err)
	}

	return names, nil
}

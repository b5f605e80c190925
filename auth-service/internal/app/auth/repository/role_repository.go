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
	ErrRoleNotFound       = errors.New("role not found")
	ErrPermissionNotFound = errors.New("permission not found")
)

type roleRepository struct {
	db *pgxpool.Pool
}

// NewRoleRepository создает новый репозиторий ролей
func NewRoleRepository(db *pgxpool.Pool) RoleRepository {
	return &roleRepository{db: db}
}

// GetByID получает роль по ID
func (r *roleRepository) GetByID(ctx context.Context, id int) (*entity.Role, error) {
	query := `SELECT id, name, description, is_system FROM roles WHERE id = $1`

	var role entity.Role
	err := r.db.QueryRow(ctx, query, id).Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by id: %w", err)
	}

	return &role, nil
}

// GetByName получает роль по имени
func (r *roleRepository) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	query := `SELECT id, name, description, is_system FROM roles WHERE name = $1`

	var role entity.Role
	err := r.db.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role by name: %w", err)
	}

	return &role, nil
}

// List получает все роли
func (r *roleRepository) List(ctx context.Context) ([]entity.Role, error) {
	query := `SELECT id, name, description, is_system FROM roles ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// Create создает новую роль и заполняет её ID
func (r *roleRepository) Create(ctx context.Context, role *entity.Role) error {
	query := `
		INSERT INTO roles (name, description, is_system)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, role.Name, role.Description, role.IsSystem).Scan(&role.ID)
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	return nil
}

// Update обновляет имя и описание роли
func (r *roleRepository) Update(ctx context.Context, role *entity.Role) error {
	query := `UPDATE roles SET name = $1, description = $2 WHERE id = $3`

	result, err := r.db.Exec(ctx, query, role.Name, role.Description, role.ID)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// Delete удаляет роль вместе со связями
func (r *roleRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM roles WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// GetPermissionByName получает разрешение по имени
func (r *roleRepository) GetPermissionByName(ctx context.Context, name string) (*entity.Permission, error) {
	query := `SELECT id, name, resource, action, scope, description FROM permissions WHERE name = $1`

	var p entity.Permission
	err := r.db.QueryRow(ctx, query, name).Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Scope, &p.Description)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to get permission by name: %w", err)
	}

	return &p, nil
}

// GetPermissionsByRoleID получает все разрешения для роли
func (r *roleRepository) GetPermissionsByRoleID(ctx context.Context, roleID int) ([]entity.Permission, error) {
	query := `
		SELECT p.id, p.name, p.resource, p.action, p.scope, p.description
		FROM permissions p
		INNER JOIN roles_permissions rp ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY p.name
	`

	return r.queryPermissions(ctx, query, roleID)
}

// ListPermissions получает все разрешения
func (r *roleRepository) ListPermissions(ctx context.Context) ([]entity.Permission, error) {
	query := `SELECT id, name, resource, action, scope, description FROM permissions ORDER BY name`

	return r.queryPermissions(ctx, query)
}

// CreatePermission создает новое разрешение и заполняет его ID
func (r *roleRepository) CreatePermission(ctx context.Context, permission *entity.Permission) error {
	query := `
		INSERT INTO permissions (name, resource, action, scope, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(
		ctx, query,
		permission.Name, permission.Resource, permission.Action, permission.Scope, permission.Description,
	).Scan(&permission.ID)

	if err != nil {
		return fmt.Errorf("failed to create permission: %w", err)
	}

	return nil
}

// DeletePermission удаляет разрешение
func (r *roleRepository) DeletePermission(ctx context.Context, id int) error {
	query := `DELETE FROM permissions WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete permission: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrPermissionNotFound
	}

	return nil
}

// AssignPermissions привязывает разрешения к роли (идемпотентно)
func (r *roleRepository) AssignPermissions(ctx context.Context, roleID int, permissionIDs []int) error {
	query := `
		INSERT INTO roles_permissions (role_id, permission_id)
		VALUES ($1, $2)
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`

	for _, permissionID := range permissionIDs {
		if _, err := r.db.Exec(ctx, query, roleID, permissionID); err != nil {
			return fmt.Errorf("failed to assign permission %d to role %d: %w", permissionID, roleID, err)
		}
	}

	return nil
}

// RemovePermissions отвязывает разрешения от роли
func (r *roleRepository) RemovePermissions(ctx context.Context, roleID int, permissionIDs []int) error {
	query := `DELETE FROM roles_permissions WHERE role_id = $1 AND permission_id = ANY($2)`

	if _, err := r.db.Exec(ctx, query, roleID, permissionIDs); err != nil {
		return fmt.Errorf("failed to remove permissions from role %d: %w", roleID, err)
	}

	return nil
}

// GetRolesByUserID получает все роли пользователя
func (r *roleRepository) GetRolesByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Role, error) {
	query := `
		SELECT r.id, r.name, r.description, r.is_system
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles for user: %w", err)
	}
	defer rows.Close()

	var roles []entity.Role
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	return roles, nil
}

// GetPermissionsByUserID получает объединение разрешений всех ролей
// пользователя одним запросом. DISTINCT схлопывает разрешение, выданное
// через несколько ролей, в одно.
func (r *roleRepository) GetPermissionsByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT DISTINCT p.name
		FROM permissions p
		INNER JOIN roles_permissions rp ON p.id = rp.permission_id
		INNER JOIN user_roles ur ON rp.role_id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY p.name
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions for user: %w", err)
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permissions: %w", err)
	}

	return permissions, nil
}

// AssignRoleToUser назначает роль пользователю (идемпотентно)
func (r *roleRepository) AssignRoleToUser(ctx context.Context, userID uuid.UUID, roleID int, assignedBy *uuid.UUID) error {
	query := `
		INSERT INTO user_roles (user_id, role_id, assigned_at, assigned_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, userID, roleID, time.Now(), assignedBy); err != nil {
		return fmt.Errorf("failed to assign role %d to user %s: %w", roleID, userID, err)
	}

	return nil
}

// RemoveRoleFromUser снимает роль с пользователя
func (r *roleRepository) RemoveRoleFromUser(ctx context.Context, userID uuid.UUID, roleID int) error {
	query := `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`

	result, err := r.db.Exec(ctx, query, userID, roleID)
	if err != nil {
		return fmt.Errorf("failed to remove role %d from user %s: %w", roleID, userID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrRoleNotFound
	}

	return nil
}

func (r *roleRepository) queryPermissions(ctx context.Context, query string, args ...interface{}) ([]entity.Permission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var permissions []entity.Permission
	for rows.Next() {
		var p entity.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Resource, &p.Action, &p.Scope, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permissions: %w", err)
	}

	return permissions, nil
}

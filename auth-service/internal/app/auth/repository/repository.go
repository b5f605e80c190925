package repository

import (
	"context"
	"errors"
	"time"

	"demeter/auth-service/internal/app/auth/entity"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]entity.User, error)
	Count(ctx context.Context) (int64, error)
}

type RoleRepository interface {
	GetByID(ctx context.Context, id int) (*entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	List(ctx context.Context) ([]entity.Role, error)
	Create(ctx context.Context, role *entity.Role) error
	Update(ctx context.Context, role *entity.Role) error
	Delete(ctx context.Context, id int) error

	GetPermissionByName(ctx context.Context, name string) (*entity.Permission, error)
	GetPermissionsByRoleID(ctx context.Context, roleID int) ([]entity.Permission, error)
	ListPermissions(ctx context.Context) ([]entity.Permission, error)
	CreatePermission(ctx context.Context, permission *entity.Permission) error
	DeletePermission(ctx context.Context, id int) error

	AssignPermissions(ctx context.Context, roleID int, permissionIDs []int) error
	RemovePermissions(ctx context.Context, roleID int, permissionIDs []int) error

	GetRolesByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Role, error)
	GetPermissionsByUserID(ctx context.Context, userID uuid.UUID) ([]string, error)
	AssignRoleToUser(ctx context.Context, userID uuid.UUID, roleID int, assignedBy *uuid.UUID) error
	RemoveRoleFromUser(ctx context.Context, userID uuid.UUID, roleID int) error
}

type TokenRepository interface {
	Save(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time, meta entity.ClientMeta) (int64, error)
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	IsValid(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, onlyValid bool) ([]entity.RefreshToken, error)
}

// DenylistRepository хранит отозванные access токены до их естественного
// истечения. Реализуется поверх Redis с TTL.
type DenylistRepository interface {
	AddToDenylist(ctx context.Context, token string, ttl time.Duration) error
	IsDenylisted(ctx context.Context, token string) (bool, error)
}

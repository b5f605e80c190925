package service

import (
	"context"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/util"

	"github.com/google/uuid"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, req *entity.RegisterRequest) (*entity.UserResponse, error)
	Login(ctx context.Context, req *entity.LoginRequest, meta entity.ClientMeta) (*entity.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID, accessToken string, req *entity.LogoutRequest) (int64, error)
	ListSessions(ctx context.Context, userID uuid.UUID, onlyValid bool) ([]entity.RefreshToken, error)
	ValidateAccessToken(ctx context.Context, token string) (*util.TokenClaims, error)
	LoadPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error)
}

type UserServiceInterface interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*entity.UserResponse, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, req *entity.UpdateMeRequest) (*entity.UserResponse, int64, error)
	DeleteMe(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, skip, limit int) (*entity.UserListResponse, error)
	AdminUpdate(ctx context.Context, userID uuid.UUID, req *entity.AdminUpdateUserRequest) (*entity.UserResponse, error)
	AdminDelete(ctx context.Context, userID uuid.UUID) (int64, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleID int, assignedBy *uuid.UUID) error
	RemoveRole(ctx context.Context, userID uuid.UUID, roleID int) error
	EnsureAdmin(ctx context.Context, email, password string) error
}

type RoleServiceInterface interface {
	Create(ctx context.Context, req *entity.CreateRoleRequest) (*entity.Role, error)
	GetByID(ctx context.Context, id int) (*entity.RoleWithPermissions, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	List(ctx context.Context) ([]entity.Role, error)
	Update(ctx context.Context, id int, req *entity.UpdateRoleRequest) (*entity.Role, error)
	Delete(ctx context.Context, id int) error
	GetPermissions(ctx context.Context, roleID int) ([]entity.Permission, error)
	AssignPermissions(ctx context.Context, roleID int, permissionIDs []int) error
	RemovePermissions(ctx context.Context, roleID int, permissionIDs []int) error
	SeedDefaults(ctx context.Context) error
}

type PermissionServiceInterface interface {
	List(ctx context.Context) ([]entity.Permission, error)
	Create(ctx context.Context, req *entity.CreatePermissionRequest) (*entity.Permission, error)
	Delete(ctx context.Context, id int) error
}

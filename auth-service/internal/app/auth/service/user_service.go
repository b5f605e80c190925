package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"demeter/auth-service/internal/app/auth/entity"
	"demeter/auth-service/internal/app/auth/repository"
	"demeter/auth-service/internal/app/auth/util"
	"demeter/pkg/logger"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100
)

// UserService обрабатывает бизнес-логику работы с пользователями
type UserService struct {
	userRepo       repository.UserRepository
	roleRepo       repository.RoleRepository
	tokenRepo      repository.TokenRepository
	passwordPolicy util.PasswordPolicy
}

// NewUserService создает новый сервис пользователей
func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokenRepo repository.TokenRepository,
	passwordPolicy util.PasswordPolicy,
) *UserService {
	return &UserService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		tokenRepo:      tokenRepo,
		passwordPolicy: passwordPolicy,
	}
}

// GetByID получает пользователя с ролями по идентификатору
func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*entity.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsDeleted {
		return nil, ErrUserNotFound
	}

	roles, err := s.roleRepo.GetRolesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	resp := toUserResponse(user, roles)
	return &resp, nil
}

// UpdateMe обновляет профиль текущего пользователя. Смена пароля
// отзывает все refresh токены пользователя; возвращается количество
// отозванных токенов.
func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, req *entity.UpdateMeRequest) (*entity.UserResponse, int64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsDeleted {
		return nil, 0, ErrUserNotFound
	}

	// Обновляем поля
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}

	if req.Email != "" && req.Email != user.Email {
		// Новый email не должен быть занят другим пользователем
		existing, err := s.userRepo.GetByEmail(ctx, req.Email)
		if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
			return nil, 0, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil && existing.ID != user.ID {
			return nil, 0, ErrUserExists
		}
		user.Email = req.Email
	}

	var tokensRevoked int64
	if req.Password != "" {
		if req.Password != req.PasswordConfirm {
			return nil, 0, fmt.Errorf("%w: passwords do not match", ErrValidation)
		}
		if ok, reason := util.ValidatePasswordStrength(req.Password, s.passwordPolicy); !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrValidation, reason)
		}

		passwordHash, err := util.HashPassword(req.Password)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to hash password: %w", err)
		}

		if err := s.userRepo.UpdatePassword(ctx, userID, passwordHash); err != nil {
			return nil, 0, fmt.Errorf("failed to update password: %w", err)
		}

		// Смена пароля завершает все активные сессии
		count, err := s.tokenRepo.RevokeAllByUser(ctx, userID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
		}
		tokensRevoked = count
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, 0, fmt.Errorf("failed to update user: %w", err)
	}

	roles, err := s.roleRepo.GetRolesByUserID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user roles: %w", err)
	}

	resp := toUserResponse(user, roles)
	return &resp, tokensRevoked, nil
}

// DeleteMe мягко удаляет аккаунт текущего пользователя и отзывает все
// его refresh токены. Возвращает количество отозванных токенов.
func (s *UserService) DeleteMe(ctx context.Context, userID uuid.UUID) (int64, error) {
	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}

	count, err := s.tokenRepo.RevokeAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}

	return count, nil
}

// List получает страницу пользователей для административного списка
func (s *UserService) List(ctx context.Context, skip, limit int) (*entity.UserListResponse, error) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}

	users, err := s.userRepo.List(ctx, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	items := make([]entity.UserResponse, len(users))
	for i := range users {
		roles, err := s.roleRepo.GetRolesByUserID(ctx, users[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get roles for user %s: %w", users[i].ID, err)
		}
		items[i] = toUserResponse(&users[i], roles)
	}

	return &entity.UserListResponse{
		Items: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}, nil
}

// AdminUpdate обновляет административные флаги пользователя
func (s *UserService) AdminUpdate(ctx context.Context, userID uuid.UUID, req *entity.AdminUpdateUserRequest) (*entity.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsDeleted {
		return nil, ErrUserNotFound
	}

	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsVerified != nil {
		user.IsVerified = *req.IsVerified
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	roles, err := s.roleRepo.GetRolesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	resp := toUserResponse(user, roles)
	return &resp, nil
}

// AdminDelete мягко удаляет пользователя от имени администратора и
// отзывает его refresh токены
func (s *UserService) AdminDelete(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.DeleteMe(ctx, userID)
}

// AssignRole назначает пользователю роль
func (s *UserService) AssignRole(ctx context.Context, userID uuid.UUID, roleID int, assignedBy *uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsDeleted {
		return ErrUserNotFound
	}

	// Проверяем существование роли
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to verify role: %w", err)
	}

	if err := s.roleRepo.AssignRoleToUser(ctx, userID, roleID, assignedBy); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	return nil
}

// RemoveRole снимает роль с пользователя
func (s *UserService) RemoveRole(ctx context.Context, userID uuid.UUID, roleID int) error {
	if err := s.roleRepo.RemoveRoleFromUser(ctx, userID, roleID); err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to remove role: %w", err)
	}

	return nil
}

// EnsureAdmin создаёт администратора с указанными учётными данными,
// если его ещё нет, и гарантирует ему роль admin. Вызывается на старте
// сервиса и идемпотентен.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	adminRole, err := s.roleRepo.GetByName(ctx, entity.RoleAdmin)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to get admin role: %w", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	if user == nil {
		passwordHash, err := util.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		now := time.Now()
		user = &entity.User{
			ID:           uuid.New(),
			Email:        email,
			PasswordHash: passwordHash,
			Name:         "Administrator",
			IsActive:     true,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logger.Info().Str("email", email).Msg("Admin user created")
	}

	if err := s.roleRepo.AssignRoleToUser(ctx, user.ID, adminRole.ID, nil); err != nil {
		return fmt.Errorf("failed to assign admin role: %w", err)
	}

	return nil
}

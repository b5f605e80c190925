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

// AuthService обрабатывает бизнес-логику аутентификации
type AuthService struct {
	userRepo       repository.UserRepository
	roleRepo       repository.RoleRepository
	tokenRepo      repository.TokenRepository
	denylistRepo   repository.DenylistRepository
	jwtManager     *util.JWTManager
	passwordPolicy util.PasswordPolicy
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokenRepo repository.TokenRepository,
	denylistRepo repository.DenylistRepository,
	jwtManager *util.JWTManager,
	passwordPolicy util.PasswordPolicy,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		roleRepo:       roleRepo,
		tokenRepo:      tokenRepo,
		denylistRepo:   denylistRepo,
		jwtManager:     jwtManager,
		passwordPolicy: passwordPolicy,
	}
}

// Register регистрирует нового пользователя с ролью classificador.
// Токены при регистрации не выдаются - пользователь входит отдельно.
func (s *AuthService) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.UserResponse, error) {
	// Проверяем, существует ли пользователь с таким email.
	// Email удалённого пользователя тоже считается занятым.
	existingUser, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserExists
	}

	if req.Password != req.PasswordConfirm {
		return nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	if ok, reason := util.ValidatePasswordStrength(req.Password, s.passwordPolicy); !ok {
		return nil, fmt.Errorf("%w: %s", ErrValidation, reason)
	}

	// Хэшируем пароль
	passwordHash, err := util.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Роль по умолчанию для новых пользователей
	defaultRole, err := s.roleRepo.GetByName(ctx, entity.RoleClassificador)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get default role: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Phone:        req.Phone,
		IsActive:     true,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.roleRepo.AssignRoleToUser(ctx, user.ID, defaultRole.ID, nil); err != nil {
		return nil, fmt.Errorf("failed to assign default role: %w", err)
	}

	resp := toUserResponse(user, []entity.Role{*defaultRole})
	return &resp, nil
}

// Login выполняет вход пользователя и выдаёт пару токенов.
// Несуществующий email и неверный пароль дают один и тот же ответ,
// чтобы по нему нельзя было перебирать зарегистрированные адреса.
func (s *AuthService) Login(ctx context.Context, req *entity.LoginRequest, meta entity.ClientMeta) (*entity.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !util.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if user.IsDeleted {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// Перехэшируем пароль, если параметры хэша устарели.
	// Неудача не мешает входу.
	if util.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := util.HashPassword(req.Password); hashErr == nil {
			if updErr := s.userRepo.UpdatePassword(ctx, user.ID, newHash); updErr != nil {
				logger.Warn().Err(updErr).Str("user_id", user.ID.String()).Msg("Failed to rehash password on login")
			}
		}
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshTokenDuration())
	if _, err := s.tokenRepo.Save(ctx, refreshToken, user.ID, expiresAt, meta); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	// Время последнего входа обновляется по возможности
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("Failed to update last login")
	}

	roles, err := s.roleRepo.GetRolesByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	return &entity.AuthResponse{
		User: toUserResponse(user, roles),
		Tokens: entity.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    "bearer",
			ExpiresIn:    int64(s.jwtManager.GetAccessTokenDuration().Seconds()),
		},
	}, nil
}

// Refresh выдаёт новый access токен по действующему refresh токену.
// Refresh токен не ротируется: в ответе возвращается тот же токен,
// поэтому повторный запрос с ним идемпотентен.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken, util.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	// Подпись и срок в порядке - проверяем, что токен не отозван
	valid, err := s.tokenRepo.IsValid(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if !valid {
		return nil, ErrRefreshTokenRevoked
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsDeleted {
		return nil, ErrInvalidRefreshToken
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &entity.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwtManager.GetAccessTokenDuration().Seconds()),
	}, nil
}

// Logout завершает сессию: отзывает refresh токены согласно запросу и
// помещает предъявленный access токен в denylist до конца его TTL.
// Возвращает количество отозванных refresh токенов.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, accessToken string, req *entity.LogoutRequest) (int64, error) {
	var revoked int64

	switch {
	case req.All:
		count, err := s.tokenRepo.RevokeAllByUser(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("failed to revoke user refresh tokens: %w", err)
		}
		revoked = count

	case req.RefreshToken != "":
		// Отзывать можно только собственный токен
		stored, err := s.tokenRepo.GetByToken(ctx, req.RefreshToken)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return 0, ErrInvalidRefreshToken
			}
			return 0, fmt.Errorf("failed to get refresh token: %w", err)
		}
		if stored.UserID != userID {
			return 0, ErrInvalidRefreshToken
		}

		// Повторный logout уже отозванного токена - признак replay
		// или устаревшего клиента, отвечаем как на невалидный токен
		if stored.IsRevoked {
			return 0, ErrInvalidRefreshToken
		}

		if err := s.tokenRepo.Revoke(ctx, req.RefreshToken); err != nil {
			return 0, fmt.Errorf("failed to revoke refresh token: %w", err)
		}
		revoked = 1
	}

	if err := s.denylistAccessToken(ctx, accessToken); err != nil {
		return revoked, err
	}

	return revoked, nil
}

// ListSessions получает сессии пользователя (записи refresh токенов)
func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID, onlyValid bool) ([]entity.RefreshToken, error) {
	sessions, err := s.tokenRepo.ListByUser(ctx, userID, onlyValid)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// ValidateAccessToken проверяет access токен: сначала denylist, потом
// подпись, срок действия и тип
func (s *AuthService) ValidateAccessToken(ctx context.Context, token string) (*util.TokenClaims, error) {
	denylisted, err := s.denylistRepo.IsDenylisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check denylist: %w", err)
	}
	if denylisted {
		return nil, ErrTokenDenylisted
	}

	claims, err := s.jwtManager.ValidateToken(token, util.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// LoadPrincipal загружает субъекта запроса: пользователя, его роли и
// объединение разрешений. Выполняется на каждый запрос, поэтому смена
// ролей действует немедленно - из токена берётся только идентификатор.
func (s *AuthService) LoadPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsDeleted || !user.IsActive {
		return nil, ErrUserInactive
	}

	roles, err := s.roleRepo.GetRolesByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}

	permissions, err := s.roleRepo.GetPermissionsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	roleNames := make([]string, len(roles))
	isAdmin := false
	for i, role := range roles {
		roleNames[i] = role.Name
		if role.Name == entity.RoleAdmin {
			isAdmin = true
		}
	}

	return &entity.Principal{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Roles:       roleNames,
		Permissions: permissions,
		IsAdmin:     isAdmin,
	}, nil
}

// denylistAccessToken помещает access токен в denylist на остаток TTL.
// Токен уже прошёл аутентификацию, поэтому ошибка разбора означает лишь,
// что запрещать нечего.
func (s *AuthService) denylistAccessToken(ctx context.Context, accessToken string) error {
	claims, err := s.jwtManager.DecodeExpired(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.denylistRepo.AddToDenylist(ctx, accessToken, ttl); err != nil {
		return fmt.Errorf("failed to denylist access token: %w", err)
	}

	return nil
}

// toUserResponse собирает публичное представление пользователя
func toUserResponse(user *entity.User, roles []entity.Role) entity.UserResponse {
	roleNames := make([]string, len(roles))
	for i, role := range roles {
		roleNames[i] = role.Name
	}

	return entity.UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Phone:      user.Phone,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		Roles:      roleNames,
		LastLogin:  user.LastLogin,
		CreatedAt:  user.CreatedAt,
	}
}

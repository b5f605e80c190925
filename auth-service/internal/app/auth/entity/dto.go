package entity

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest - запрос на регистрацию
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	Name            string `json:"name" validate:"required,min=2,max=100,personname"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
}

// LoginRequest - запрос на вход
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest - запрос на обновление access токена
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest - запрос на выход. Если указан refresh_token, отзывается
// только он; если all=true - все сессии пользователя; иначе отзыв не
// выполняется, но access токен всё равно попадает в denylist.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	All          bool   `json:"all"`
}

// UserResponse - публичное представление пользователя
type UserResponse struct {
	ID         uuid.UUID  `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone,omitempty"`
	IsActive   bool       `json:"is_active"`
	IsVerified bool       `json:"is_verified"`
	Roles      []string   `json:"roles"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AuthResponse - ответ на вход: пользователь и пара токенов
type AuthResponse struct {
	User   UserResponse `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

// LogoutResponse - результат выхода
type LogoutResponse struct {
	Message       string `json:"message"`
	TokensRevoked int64  `json:"tokens_revoked"`
}

// UpdateMeRequest - запрос на обновление собственного профиля.
// Все поля опциональны; при смене пароля отзываются все refresh токены.
type UpdateMeRequest struct {
	Name            string `json:"name,omitempty" validate:"omitempty,min=2,max=100,personname"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Phone           string `json:"phone,omitempty" validate:"omitempty,phone"`
	Password        string `json:"password,omitempty"`
	PasswordConfirm string `json:"password_confirm,omitempty"`
}

// AdminUpdateUserRequest - административное обновление флагов пользователя
type AdminUpdateUserRequest struct {
	IsActive   *bool `json:"is_active,omitempty"`
	IsVerified *bool `json:"is_verified,omitempty"`
}

// UserListResponse - страница списка пользователей
type UserListResponse struct {
	Items []UserResponse `json:"items"`
	Total int64          `json:"total"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// SessionListResponse - активные и исторические сессии пользователя
type SessionListResponse struct {
	Sessions []RefreshToken `json:"sessions"`
	Total    int            `json:"total"`
}

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CreateRoleRequest - запрос на создание роли
type CreateRoleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Description string `json:"description"`
}

// UpdateRoleRequest - запрос на обновление роли
type UpdateRoleRequest struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// AssignPermissionsRequest - запрос на назначение разрешений роли
type AssignPermissionsRequest struct {
	PermissionIDs []int `json:"permission_ids" validate:"required,min=1"`
}

// CreatePermissionRequest - запрос на создание разрешения.
// Имя обязано иметь формат resource:action:scope.
type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// AssignRoleRequest - запрос на назначение роли пользователю
type AssignRoleRequest struct {
	RoleID int `json:"role_id" validate:"required,min=1"`
}

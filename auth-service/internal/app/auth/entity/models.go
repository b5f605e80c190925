package entity

import (
	"time"

	"github.com/google/uuid"
)

// Имена системных ролей, создаваемых при инициализации
const (
	RoleAdmin         = "admin"
	RoleClassificador = "classificador"
)

// User представляет пользователя в системе
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // не возвращаем в JSON
	Name         string     `json:"name" db:"name"`
	Phone        string     `json:"phone,omitempty" db:"phone"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	IsVerified   bool       `json:"is_verified" db:"is_verified"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted    bool       `json:"-" db:"is_deleted"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

// Role представляет роль пользователя (classificador, admin)
type Role struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	IsSystem    bool   `json:"is_system" db:"is_system"`
}

// Permission представляет разрешение в формате resource:action:scope
// (например, classifications:create:own)
type Permission struct {
	ID          int    `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Resource    string `json:"resource" db:"resource"`
	Action      string `json:"action" db:"action"`
	Scope       string `json:"scope" db:"scope"`
	Description string `json:"description,omitempty" db:"description"`
}

// RefreshToken хранит refresh токены вместе с метаданными клиента.
// Сам токен наружу не отдаётся - только метаданные сессии.
type RefreshToken struct {
	ID        int64      `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Token     string     `json:"-" db:"token"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	IsRevoked bool       `json:"is_revoked" db:"is_revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	UserAgent string     `json:"user_agent,omitempty" db:"user_agent"`
	IPAddress string     `json:"ip_address,omitempty" db:"ip_address"`
}

// IsValid сообщает, можно ли ещё использовать токен
func (t *RefreshToken) IsValid() bool {
	return !t.IsRevoked && time.Now().Before(t.ExpiresAt)
}

// TokenPair содержит access и refresh токены
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // всегда "bearer"
	ExpiresIn    int64  `json:"expires_in"` // время жизни access token в секундах
}

// ClientMeta - метаданные клиента, сохраняемые вместе с refresh токеном
type ClientMeta struct {
	UserAgent string
	IPAddress string
}

// Principal - результат разрешения прав доступа для запроса.
// Роли и разрешения загружаются из БД на каждый запрос: из токена
// берётся только идентификатор пользователя.
type Principal struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	IsAdmin     bool      `json:"is_admin"`
}

// HasPermission проверяет наличие разрешения у субъекта
func (p *Principal) HasPermission(permission string) bool {
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

// HasRole проверяет наличие роли у субъекта
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleWithPermissions содержит роль вместе с её разрешениями
type RoleWithPermissions struct {
	Role
	Permissions []Permission `json:"permissions"`
}

package repository

import (
	"context"

	"demeter/classification-service/internal/app/classification/entity"

	"github.com/google/uuid"
)

type ClassificationRepository interface {
	Create(ctx context.Context, classification *entity.Classification) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Classification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, grainType string, limit, offset int) ([]entity.Classification, error)
	CountByUser(ctx context.Context, userID uuid.UUID, grainType string) (int64, error)
	ListAll(ctx context.Context, userID *uuid.UUID, grainType string, includeDeleted bool, limit, offset int) ([]entity.Classification, error)
	CountAll(ctx context.Context, userID *uuid.UUID, grainType string, includeDeleted bool) (int64, error)
	Update(ctx context.Context, classification *entity.Classification) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// AccessRepository читает субъект запроса из общей с auth-service схемы.
// Роли и разрешения определяются базой, а не токеном, поэтому отзыв роли
// действует немедленно.
type AccessRepository interface {
	GetPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]entity.AuditLog, error)
	Count(ctx context.Context) (int64, error)
}

// ListCacheRepository кэширует страницы собственных списков пользователя.
// Ключи строятся из всех параметров выборки, инвалидация - по всем ключам
// пользователя разом.
type ListCacheRepository interface {
	ListKey(userID uuid.UUID, skip, limit int, grainType string) string
	GetList(ctx context.Context, key string) (*entity.ClassificationListResponse, error)
	SetList(ctx context.Context, key string, list *entity.ClassificationListResponse) error
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}

// DenylistRepository проверяет access токены по denylist, который ведёт
// auth-service. Сервис классификаций только читает.
type DenylistRepository interface {
	IsDenylisted(ctx context.Context, token string) (bool, error)
}

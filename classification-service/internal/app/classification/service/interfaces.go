package service

import (
	"context"
	"io"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/util"

	"github.com/google/uuid"
)

// ImageUpload - содержимое загружаемого изображения
type ImageUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// ImageStorage хранит изображения классификаций и переводит публичные
// пути в локальные
type ImageStorage interface {
	Save(userID uuid.UUID, filename string, src io.Reader, size int64) (string, error)
	Delete(imagePath string) bool
	DiskPath(imagePath string) (string, bool)
}

type ClassificationServiceInterface interface {
	Create(ctx context.Context, principal *entity.Principal, upload *ImageUpload, notes string) (*entity.Classification, error)
	GetByID(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*entity.Classification, error)
	ListOwn(ctx context.Context, principal *entity.Principal, skip, limit int, grainType string) (*entity.ClassificationListResponse, error)
	Update(ctx context.Context, principal *entity.Principal, id uuid.UUID, req *entity.UpdateClassificationRequest) (*entity.Classification, error)
	Delete(ctx context.Context, principal *entity.Principal, id uuid.UUID) error
	ListAll(ctx context.Context, skip, limit int, userID *uuid.UUID, grainType string, includeDeleted bool) (*entity.ClassificationListResponse, error)
	AdminDelete(ctx context.Context, principal *entity.Principal, id uuid.UUID, hard bool, meta entity.ClientMeta) error
	AdminRestore(ctx context.Context, principal *entity.Principal, id uuid.UUID, meta entity.ClientMeta) (*entity.Classification, error)
	ListAuditLogs(ctx context.Context, skip, limit int) (*entity.AuditLogListResponse, error)
}

type AccessServiceInterface interface {
	ValidateAccessToken(ctx context.Context, token string) (*util.TokenClaims, error)
	LoadPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error)
}

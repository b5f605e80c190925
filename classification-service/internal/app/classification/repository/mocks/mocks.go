package mocks

import (
	"context"
	"io"

	"demeter/classification-service/internal/app/classification/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockClassificationRepository мок для ClassificationRepository
type MockClassificationRepository struct {
	mock.Mock
}

func (m *MockClassificationRepository) Create(ctx context.Context, classification *entity.Classification) error {
	args := m.Called(ctx, classification)
	return args.Error(0)
}

func (m *MockClassificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Classification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Classification), args.Error(1)
}

func (m *MockClassificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, grainType string, limit, offset int) ([]entity.Classification, error) {
	args := m.Called(ctx, userID, grainType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Classification), args.Error(1)
}

func (m *MockClassificationRepository) CountByUser(ctx context.Context, userID uuid.UUID, grainType string) (int64, error) {
	args := m.Called(ctx, userID, grainType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClassificationRepository) ListAll(ctx context.Context, userID *uuid.UUID, grainType string, includeDeleted bool, limit, offset int) ([]entity.Classification, error) {
	args := m.Called(ctx, userID, grainType, includeDeleted, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Classification), args.Error(1)
}

func (m *MockClassificationRepository) CountAll(ctx context.Context, userID *uuid.UUID, grainType string, includeDeleted bool) (int64, error) {
	args := m.Called(ctx, userID, grainType, includeDeleted)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClassificationRepository) Update(ctx context.Context, classification *entity.Classification) error {
	args := m.Called(ctx, classification)
	return args.Error(0)
}

func (m *MockClassificationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClassificationRepository) Restore(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClassificationRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAccessRepository мок для AccessRepository
type MockAccessRepository struct {
	mock.Mock
}

func (m *MockAccessRepository) GetPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Principal), args.Error(1)
}

// MockAuditLogRepository мок для AuditLogRepository
type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditLogRepository) List(ctx context.Context, limit, offset int) ([]entity.AuditLog, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.AuditLog), args.Error(1)
}

func (m *MockAuditLogRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockListCacheRepository мок для ListCacheRepository
type MockListCacheRepository struct {
	mock.Mock
}

func (m *MockListCacheRepository) ListKey(userID uuid.UUID, skip, limit int, grainType string) string {
	args := m.Called(userID, skip, limit, grainType)
	return args.String(0)
}

func (m *MockListCacheRepository) GetList(ctx context.Context, key string) (*entity.ClassificationListResponse, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ClassificationListResponse), args.Error(1)
}

func (m *MockListCacheRepository) SetList(ctx context.Context, key string, list *entity.ClassificationListResponse) error {
	args := m.Called(ctx, key, list)
	return args.Error(0)
}

func (m *MockListCacheRepository) InvalidateUser(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockDenylistRepository мок для DenylistRepository
type MockDenylistRepository struct {
	mock.Mock
}

func (m *MockDenylistRepository) IsDenylisted(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

// MockClassifier мок для infrastructure.Classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, imagePath string) (*entity.ClassificationResult, error) {
	args := m.Called(ctx, imagePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ClassificationResult), args.Error(1)
}

// MockMessagePublisher мок для infrastructure.MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockImageStorage мок для service.ImageStorage
type MockImageStorage struct {
	mock.Mock
}

func (m *MockImageStorage) Save(userID uuid.UUID, filename string, src io.Reader, size int64) (string, error) {
	args := m.Called(userID, filename, src, size)
	return args.String(0), args.Error(1)
}

func (m *MockImageStorage) Delete(imagePath string) bool {
	args := m.Called(imagePath)
	return args.Bool(0)
}

func (m *MockImageStorage) DiskPath(imagePath string) (string, bool) {
	args := m.Called(imagePath)
	return args.String(0), args.Bool(1)
}

package repository

import (
	"context"
	"errors"
	"time"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/pkg/metrics"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrClassificationNotFound = errors.New("classification not found")
)

const (
	serviceName          = "classification-service"
	classificationsTable = "classifications"
)

type classificationRepository struct {
	db *gorm.DB
}

// NewClassificationRepository создает новый репозиторий классификаций
func NewClassificationRepository(db *gorm.DB) ClassificationRepository {
	return &classificationRepository{db: db}
}

// Create сохраняет новую классификацию. ID генерируется базой и
// возвращается в переданную структуру.
func (r *classificationRepository) Create(ctx context.Context, classification *entity.Classification) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpInsert, classificationsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Create(classification)
	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpInsert)
		return result.Error
	}

	return nil
}

// GetByID получает классификацию по ID, включая помеченные удалёнными:
// админские операции восстановления работают именно с ними.
func (r *classificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Classification, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, classificationsTable)
	defer timer.ObserveDuration()

	var classification entity.Classification
	result := r.db.WithContext(ctx).First(&classification, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrClassificationNotFound
		}
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, result.Error
	}

	return &classification, nil
}

// ListByUser получает страницу неудалённых классификаций пользователя
func (r *classificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, grainType string, limit, offset int) ([]entity.Classification, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, classificationsTable)
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Where("user_id = ? AND is_deleted = ?", userID, false)
	if grainType != "" {
		query = query.Where("grain_type = ?", grainType)
	}

	var classifications []entity.Classification
	result := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&classifications)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, result.Error
	}

	return classifications, nil
}

// CountByUser возвращает количество неудалённых классификаций пользователя
func (r *classificationRepository) CountByUser(ctx context.Context, userID uuid.UUID, grainType string) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, classificationsTable)
	defer timer.ObserveDuration()

	query := r.db.WithContext(ctx).Model(&entity.Classification{}).
		Where("user_id = ? AND is_deleted = ?", userID, false)
	if grainType != "" {
		query = query.Where("grain_type = ?", grainType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return 0, err
	}

	return total, nil
}

// ListAll получает страницу классификаций всех пользователей с
// опциональными фильтрами. Используется административными операциями.
func (r *classificationRepository) ListAll(ctx context.Context, userID *uuid.UUID, grainType string, includeDeleted bool, limit, offset int) ([]entity.Classification, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, classificationsTable)
	defer timer.ObserveDuration()

	query := r.applyAdminFilters(r.db.WithContext(ctx), userID, grainType, includeDeleted)

	var classifications []entity.Classification
	result := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&classifications)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return nil, result.Error
	}

	return classifications, nil
}

// CountAll возвращает количество классификаций с теми же фильтрами, что и ListAll
func (r *classificationRepository) CountAll(ctx context.Context, userID *uuid.UUID, grainType string, includeDeleted bool) (int64, error) {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpSelect, classificationsTable)
	defer timer.ObserveDuration()

	query := r.applyAdminFilters(r.db.WithContext(ctx).Model(&entity.Classification{}), userID, grainType, includeDeleted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpSelect)
		return 0, err
	}

	return total, nil
}

// Update обновляет заметки классификации
func (r *classificationRepository) Update(ctx context.Context, classification *entity.Classification) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, classificationsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Classification{}).
		Where("id = ? AND is_deleted = ?", classification.ID, false).
		Updates(map[string]interface{}{
			"notes": classification.Notes,
		})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrClassificationNotFound
	}

	return nil
}

// SoftDelete помечает классификацию удалённой. Уже удалённая запись
// считается отсутствующей.
func (r *classificationRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, classificationsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Classification{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": time.Now(),
		})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrClassificationNotFound
	}

	return nil
}

// Restore снимает пометку удаления с классификации
func (r *classificationRepository) Restore(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpUpdate, classificationsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Model(&entity.Classification{}).
		Where("id = ? AND is_deleted = ?", id, true).
		Updates(map[string]interface{}{
			"is_deleted": false,
			"deleted_at": nil,
		})

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpUpdate)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrClassificationNotFound
	}

	return nil
}

// HardDelete окончательно удаляет классификацию из базы
func (r *classificationRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	timer := metrics.NewDbTimer(serviceName, metrics.DbOpDelete, classificationsTable)
	defer timer.ObserveDuration()

	result := r.db.WithContext(ctx).Delete(&entity.Classification{}, "id = ?", id)

	if result.Error != nil {
		metrics.RecordDbError(serviceName, metrics.DbOpDelete)
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrClassificationNotFound
	}

	return nil
}

func (r *classificationRepository) applyAdminFilters(query *gorm.DB, userID *uuid.UUID, grainType string, includeDeleted bool) *gorm.DB {
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if grainType != "" {
		query = query.Where("grain_type = ?", grainType)
	}
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	return query
}

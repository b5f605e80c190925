package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/infrastructure"
	"demeter/classification-service/internal/app/classification/repository"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 100
	maxListLimit     = 100

	maxNotesLength = 500
)

// ClassificationService реализует операции над классификациями: от
// загрузки изображения до административного восстановления
type ClassificationService struct {
	classificationRepo repository.ClassificationRepository
	auditRepo          repository.AuditLogRepository
	cacheRepo          repository.ListCacheRepository
	storage            ImageStorage
	classifier         infrastructure.Classifier
	publisher          infrastructure.MessagePublisher
}

func NewClassificationService(
	classificationRepo repository.ClassificationRepository,
	auditRepo repository.AuditLogRepository,
	cacheRepo repository.ListCacheRepository,
	storage ImageStorage,
	classifier infrastructure.Classifier,
	publisher infrastructure.MessagePublisher,
) *ClassificationService {
	return &ClassificationService{
		classificationRepo: classificationRepo,
		auditRepo:          auditRepo,
		cacheRepo:          cacheRepo,
		storage:            storage,
		classifier:         classifier,
		publisher:          publisher,
	}
}

// Create сохраняет изображение, прогоняет его через классификатор и
// записывает результат. Событие в Kafka публикуется по возможности:
// его потеря не отменяет классификацию.
func (s *ClassificationService) Create(ctx context.Context, principal *entity.Principal, upload *ImageUpload, notes string) (*entity.Classification, error) {
	if len(notes) > maxNotesLength {
		return nil, fmt.Errorf("%w: notes must be at most %d characters", ErrValidation, maxNotesLength)
	}

	imagePath, err := s.storage.Save(principal.UserID, upload.Filename, upload.Reader, upload.Size)
	if err != nil {
		metrics.ImagesUploaded.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.ImagesUploaded.WithLabelValues("success").Inc()

	diskPath, ok := s.storage.DiskPath(imagePath)
	if !ok {
		s.storage.Delete(imagePath)
		return nil, fmt.Errorf("failed to resolve stored image path")
	}

	result, err := s.classifier.Classify(ctx, diskPath)
	if err != nil {
		s.storage.Delete(imagePath)
		return nil, err
	}

	classification := &entity.Classification{
		UserID:          principal.UserID,
		ImagePath:       imagePath,
		GrainType:       result.GrainType,
		ConfidenceScore: result.ConfidenceScore,
		ExtraData:       result.ExtraData,
		Notes:           notes,
	}

	if err := s.classificationRepo.Create(ctx, classification); err != nil {
		s.storage.Delete(imagePath)
		return nil, fmt.Errorf("failed to create classification: %w", err)
	}

	metrics.ClassificationsCreated.WithLabelValues(classification.GrainType).Inc()

	s.publishCreatedEvent(ctx, classification)
	s.invalidateUserCache(ctx, classification.UserID)

	return classification, nil
}

// GetByID получает классификацию. Чужие и удалённые записи для
// пользователя без полного доступа выглядят отсутствующими.
func (s *ClassificationService) GetByID(ctx context.Context, principal *entity.Principal, id uuid.UUID) (*entity.Classification, error) {
	classification, err := s.getClassification(ctx, id)
	if err != nil {
		return nil, err
	}

	canReadAll := principal.HasPermission(entity.PermReadAll)

	if classification.UserID != principal.UserID && !canReadAll {
		return nil, ErrClassificationNotFound
	}

	if classification.IsDeleted && !canReadAll {
		return nil, ErrClassificationNotFound
	}

	return classification, nil
}

// ListOwn получает страницу собственных классификаций пользователя.
// Страницы кэшируются в Redis и инвалидируются при любой записи.
func (s *ClassificationService) ListOwn(ctx context.Context, principal *entity.Principal, skip, limit int, grainType string) (*entity.ClassificationListResponse, error) {
	skip, limit = normalizePage(skip, limit)

	key := s.cacheRepo.ListKey(principal.UserID, skip, limit, grainType)

	cached, err := s.cacheRepo.GetList(ctx, key)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read list cache")
	}
	if cached != nil {
		return cached, nil
	}

	items, err := s.classificationRepo.ListByUser(ctx, principal.UserID, grainType, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}

	total, err := s.classificationRepo.CountByUser(ctx, principal.UserID, grainType)
	if err != nil {
		return nil, fmt.Errorf("failed to count classifications: %w", err)
	}

	response := &entity.ClassificationListResponse{
		Items: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}

	if err := s.cacheRepo.SetList(ctx, key, response); err != nil {
		logger.Warn().Err(err).Msg("failed to write list cache")
	}

	return response, nil
}

// Update изменяет заметки собственной классификации
func (s *ClassificationService) Update(ctx context.Context, principal *entity.Principal, id uuid.UUID, req *entity.UpdateClassificationRequest) (*entity.Classification, error) {
	if req.Notes == nil {
		return nil, fmt.Errorf("%w: notes field is required", ErrValidation)
	}
	if len(*req.Notes) > maxNotesLength {
		return nil, fmt.Errorf("%w: notes must be at most %d characters", ErrValidation, maxNotesLength)
	}

	classification, err := s.getClassification(ctx, id)
	if err != nil {
		return nil, err
	}

	if classification.UserID != principal.UserID || classification.IsDeleted {
		return nil, ErrClassificationNotFound
	}

	classification.Notes = *req.Notes
	if err := s.classificationRepo.Update(ctx, classification); err != nil {
		if errors.Is(err, repository.ErrClassificationNotFound) {
			return nil, ErrClassificationNotFound
		}
		return nil, fmt.Errorf("failed to update classification: %w", err)
	}

	s.invalidateUserCache(ctx, classification.UserID)

	return s.getClassification(ctx, id)
}

// Delete помечает собственную классификацию удалённой. Изображение
// остаётся на диске: администратор может восстановить запись.
func (s *ClassificationService) Delete(ctx context.Context, principal *entity.Principal, id uuid.UUID) error {
	classification, err := s.getClassification(ctx, id)
	if err != nil {
		return err
	}

	if classification.UserID != principal.UserID || classification.IsDeleted {
		return ErrClassificationNotFound
	}

	if err := s.classificationRepo.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrClassificationNotFound) {
			return ErrClassificationNotFound
		}
		return fmt.Errorf("failed to delete classification: %w", err)
	}

	s.invalidateUserCache(ctx, classification.UserID)

	return nil
}

// ListAll получает страницу классификаций всех пользователей.
// Административные списки не кэшируются.
func (s *ClassificationService) ListAll(ctx context.Context, skip, limit int, userID *uuid.UUID, grainType string, includeDeleted bool) (*entity.ClassificationListResponse, error) {
	skip, limit = normalizePage(skip, limit)

	items, err := s.classificationRepo.ListAll(ctx, userID, grainType, includeDeleted, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list classifications: %w", err)
	}

	total, err := s.classificationRepo.CountAll(ctx, userID, grainType, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to count classifications: %w", err)
	}

	return &entity.ClassificationListResponse{
		Items: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}, nil
}

// AdminDelete удаляет любую классификацию. При hard запись и изображение
// удаляются безвозвратно, при soft ставится пометка. Действие попадает
// в журнал аудита.
func (s *ClassificationService) AdminDelete(ctx context.Context, principal *entity.Principal, id uuid.UUID, hard bool, meta entity.ClientMeta) error {
	classification, err := s.getClassification(ctx, id)
	if err != nil {
		return err
	}

	action := entity.AuditActionSoftDelete

	if hard {
		action = entity.AuditActionHardDelete

		if err := s.classificationRepo.HardDelete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrClassificationNotFound) {
				return ErrClassificationNotFound
			}
			return fmt.Errorf("failed to hard delete classification: %w", err)
		}

		if !s.storage.Delete(classification.ImagePath) {
			logger.Warn().
				Str("classification_id", id.String()).
				Str("image_path", classification.ImagePath).
				Msg("failed to delete classification image")
		}
	} else {
		if classification.IsDeleted {
			return ErrClassificationNotFound
		}

		if err := s.classificationRepo.SoftDelete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrClassificationNotFound) {
				return ErrClassificationNotFound
			}
			return fmt.Errorf("failed to soft delete classification: %w", err)
		}
	}

	s.audit(ctx, principal, action, classification, meta)
	s.invalidateUserCache(ctx, classification.UserID)

	return nil
}

// AdminRestore снимает пометку удаления. Восстановление неудалённой
// записи - конфликт, а не no-op: вызывающий явно ошибся в её состоянии.
func (s *ClassificationService) AdminRestore(ctx context.Context, principal *entity.Principal, id uuid.UUID, meta entity.ClientMeta) (*entity.Classification, error) {
	classification, err := s.getClassification(ctx, id)
	if err != nil {
		return nil, err
	}

	if !classification.IsDeleted {
		return nil, ErrNotDeleted
	}

	if err := s.classificationRepo.Restore(ctx, id); err != nil {
		if errors.Is(err, repository.ErrClassificationNotFound) {
			return nil, ErrClassificationNotFound
		}
		return nil, fmt.Errorf("failed to restore classification: %w", err)
	}

	s.audit(ctx, principal, entity.AuditActionRestore, classification, meta)
	s.invalidateUserCache(ctx, classification.UserID)

	return s.getClassification(ctx, id)
}

// ListAuditLogs получает страницу журнала аудита
func (s *ClassificationService) ListAuditLogs(ctx context.Context, skip, limit int) (*entity.AuditLogListResponse, error) {
	skip, limit = normalizePage(skip, limit)

	items, err := s.auditRepo.List(ctx, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}

	total, err := s.auditRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return &entity.AuditLogListResponse{
		Items: items,
		Total: total,
		Skip:  skip,
		Limit: limit,
	}, nil
}

func (s *ClassificationService) getClassification(ctx context.Context, id uuid.UUID) (*entity.Classification, error) {
	classification, err := s.classificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrClassificationNotFound) {
			return nil, ErrClassificationNotFound
		}
		return nil, fmt.Errorf("failed to get classification: %w", err)
	}

	return classification, nil
}

// publishCreatedEvent отправляет событие о классификации в Kafka.
// Ошибка публикации логируется, но не отменяет уже сохранённый результат.
func (s *ClassificationService) publishCreatedEvent(ctx context.Context, classification *entity.Classification) {
	event := entity.ClassificationEvent{
		EventType:        entity.EventClassificationCreated,
		ClassificationID: classification.ID,
		UserID:           classification.UserID,
		GrainType:        classification.GrainType,
		ConfidenceScore:  classification.ConfidenceScore,
		CreatedAt:        classification.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal classification event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, classification.UserID.String(), payload); err != nil {
		logger.Error().
			Err(err).
			Str("classification_id", classification.ID.String()).
			Msg("failed to publish classification event")
	}
}

func (s *ClassificationService) audit(ctx context.Context, principal *entity.Principal, action string, classification *entity.Classification, meta entity.ClientMeta) {
	log := &entity.AuditLog{
		UserID:       principal.UserID.String(),
		Action:       action,
		ResourceType: entity.AuditResourceClassifications,
		ResourceID:   classification.ID.String(),
		Changes: map[string]interface{}{
			"grain_type": classification.GrainType,
			"user_id":    classification.UserID.String(),
			"image_path": classification.ImagePath,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}

	if err := s.auditRepo.Create(ctx, log); err != nil {
		// Само действие уже выполнено, потерю записи журнала только логируем
		logger.Error().
			Err(err).
			Str("action", action).
			Str("classification_id", classification.ID.String()).
			Msg("failed to write audit log")
	}
}

func (s *ClassificationService) invalidateUserCache(ctx context.Context, userID uuid.UUID) {
	if err := s.cacheRepo.InvalidateUser(ctx, userID); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate list cache")
	}
}

func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	return skip, limit
}

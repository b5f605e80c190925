package service

import (
	"context"
	"errors"
	"fmt"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/classification-service/internal/app/classification/repository"
	"demeter/classification-service/internal/app/classification/util"

	"github.com/google/uuid"
)

// AccessService аутентифицирует запросы по access токенам auth-service.
// Токен даёт только идентификатор пользователя; активность, роли и
// разрешения перечитываются из базы на каждый запрос.
type AccessService struct {
	accessRepo    repository.AccessRepository
	denylistRepo  repository.DenylistRepository
	tokenVerifier *util.TokenVerifier
}

func NewAccessService(
	accessRepo repository.AccessRepository,
	denylistRepo repository.DenylistRepository,
	tokenVerifier *util.TokenVerifier,
) *AccessService {
	return &AccessService{
		accessRepo:    accessRepo,
		denylistRepo:  denylistRepo,
		tokenVerifier: tokenVerifier,
	}
}

// ValidateAccessToken проверяет access токен: сначала denylist, потом
// подпись, срок действия и тип
func (s *AccessService) ValidateAccessToken(ctx context.Context, token string) (*util.TokenClaims, error) {
	denylisted, err := s.denylistRepo.IsDenylisted(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check denylist: %w", err)
	}
	if denylisted {
		return nil, ErrTokenDenylisted
	}

	claims, err := s.tokenVerifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// LoadPrincipal загружает субъекта запроса вместе с ролями и
// разрешениями. Деактивированный пользователь отклоняется даже
// с действительным токеном.
func (s *AccessService) LoadPrincipal(ctx context.Context, userID uuid.UUID) (*entity.Principal, error) {
	principal, err := s.accessRepo.GetPrincipal(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load principal: %w", err)
	}

	if !principal.IsActive {
		return nil, ErrUserInactive
	}

	return principal, nil
}

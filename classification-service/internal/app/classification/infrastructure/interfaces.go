package infrastructure

import (
	"context"
	"errors"

	"demeter/classification-service/internal/app/classification/entity"
)

// Ошибки классификатора. По ним хендлер выбирает статус ответа, а
// обёртка с fallback решает, подменять ли результат mock-классификатором.
var (
	ErrInvalidImage          = errors.New("image cannot be processed")
	ErrRateLimited           = errors.New("classifier rate limit exceeded")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
)

// Classifier определяет тип зерна по изображению. imagePath - путь
// к файлу на диске.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (*entity.ClassificationResult, error)
}

type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

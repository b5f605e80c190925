package entity

import (
	"time"

	"github.com/google/uuid"
)

// ClassificationEvent - событие из Kafka о созданной классификации.
// Формат совпадает с тем, что публикует classification-service.
type ClassificationEvent struct {
	EventType        string    `json:"event_type"`
	ClassificationID uuid.UUID `json:"classification_id"`
	UserID           uuid.UUID `json:"user_id"`
	GrainType        string    `json:"grain_type"`
	ConfidenceScore  float64   `json:"confidence_score"`
	CreatedAt        time.Time `json:"created_at"`
}

// Типы обрабатываемых событий
const (
	EventClassificationCreated = "CLASSIFICATION_CREATED"
)

// GrainDailyCount - суточный счётчик классификаций одного типа зерна
type GrainDailyCount struct {
	GrainType string    `json:"grain_type"`
	Date      string    `json:"date"` // формат YYYY-MM-DD
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ключи счётчиков в Redis: stats:classifications:<grain_type>:<YYYY-MM-DD>
const RedisKeyPrefixStats = "stats:classifications:"

// StatsKey собирает ключ суточного счётчика для типа зерна и даты
func StatsKey(grainType string, date time.Time) string {
	return RedisKeyPrefixStats + grainType + ":" + date.Format("2006-01-02")
}

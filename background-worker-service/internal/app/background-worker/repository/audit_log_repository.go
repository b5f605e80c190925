package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// auditLogRepository удаляет устаревшие записи журнала аудита.
// Коллекцию audit_logs пишет classification-service, воркер только
// подрезает её по сроку хранения.
type auditLogRepository struct {
	collection *mongo.Collection
}

// NewAuditLogRepository создает репозиторий обслуживания журнала аудита
func NewAuditLogRepository(db *mongo.Database) AuditLogRepository {
	return &auditLogRepository{
		collection: db.Collection("audit_logs"),
	}
}

// DeleteOlderThan удаляет записи журнала с created_at раньше cutoff
func (r *auditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{"created_at": bson.M{"$lt": cutoff}}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit logs: %w", err)
	}

	return result.DeletedCount, nil
}

// Count возвращает общее количество записей журнала
func (r *auditLogRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return total, nil
}

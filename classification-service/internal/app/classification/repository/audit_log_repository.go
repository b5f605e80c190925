package repository

import (
	"context"
	"fmt"
	"time"

	"demeter/classification-service/internal/app/classification/entity"
	"demeter/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type auditLogRepository struct {
	collection *mongo.Collection
}

// NewAuditLogRepository создает репозиторий журнала аудита в MongoDB.
// Индексы по created_at и user_id создаются при старте.
func NewAuditLogRepository(db *mongo.Database) AuditLogRepository {
	collection := db.Collection("audit_logs")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_idx"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("user_id_idx"),
		},
	}

	for _, indexModel := range indexes {
		if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
			// Индекс может уже существовать, работу не прерываем
			logger.Warn().Err(err).Msg("failed to create audit_logs index")
		}
	}

	return &auditLogRepository{
		collection: collection,
	}
}

// Create добавляет запись в журнал аудита
func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		log.ID = oid
	}

	return nil
}

// List получает страницу журнала, новые записи первыми
func (r *auditLogRepository) List(ctx context.Context, limit, offset int) ([]entity.AuditLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	var logs []entity.AuditLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode audit logs: %w", err)
	}

	return logs, nil
}

// Count возвращает общее количество записей журнала
func (r *auditLogRepository) Count(ctx context.Context) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return total, nil
}

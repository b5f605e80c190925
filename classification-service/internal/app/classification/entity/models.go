package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Системные роли, общие с auth-service
const (
	RoleAdmin         = "admin"
	RoleClassificador = "classificador"
)

// Разрешения, которыми защищены endpoints сервиса
const (
	PermCreateOwn  = "classifications:create:own"
	PermReadOwn    = "classifications:read:own"
	PermUpdateOwn  = "classifications:update:own"
	PermDeleteOwn  = "classifications:delete:own"
	PermReadAll    = "classifications:read:all"
	PermDeleteAll  = "classifications:delete:all"
	PermRestoreAll = "classifications:restore:all"
)

// JSONMap - произвольный JSON-объект, хранимый в колонке jsonb
type JSONMap map[string]interface{}

// Value сериализует карту для записи в PostgreSQL
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan читает jsonb колонку в карту
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSONMap: %T", value)
	}

	return json.Unmarshal(data, m)
}

// Classification - результат классификации зерна по загруженному изображению
type Classification struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ImagePath       string     `gorm:"size:500;not null" json:"image_path"`
	GrainType       string     `gorm:"size:100;not null;index" json:"grain_type"`
	ConfidenceScore float64    `gorm:"type:numeric(5,4)" json:"confidence_score"`
	ExtraData       JSONMap    `gorm:"type:jsonb" json:"extra_data,omitempty"`
	Notes           string     `gorm:"size:500" json:"notes,omitempty"`
	IsDeleted       bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName задаёт имя таблицы в PostgreSQL
func (Classification) TableName() string {
	return "classifications"
}

// ClassificationResult - ответ классификатора до сохранения в БД
type ClassificationResult struct {
	GrainType       string
	ConfidenceScore float64
	ExtraData       JSONMap
}

// ClassificationEvent - событие о созданной классификации для Kafka.
// Ключ сообщения - UserID, чтобы события одного пользователя попадали
// в одну партицию и сохраняли порядок.
type ClassificationEvent struct {
	EventType        string    `json:"event_type"`
	ClassificationID uuid.UUID `json:"classification_id"`
	UserID           uuid.UUID `json:"user_id"`
	GrainType        string    `json:"grain_type"`
	ConfidenceScore  float64   `json:"confidence_score"`
	CreatedAt        time.Time `json:"created_at"`
}

// Типы событий классификаций
const (
	EventClassificationCreated = "CLASSIFICATION_CREATED"
)

// AuditLog - запись журнала аудита административных действий (MongoDB)
type AuditLog struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	UserID       string                 `bson:"user_id" json:"user_id"`
	Action       string                 `bson:"action" json:"action"`
	ResourceType string                 `bson:"resource_type" json:"resource_type"`
	ResourceID   string                 `bson:"resource_id" json:"resource_id"`
	Changes      map[string]interface{} `bson:"changes,omitempty" json:"changes,omitempty"`
	IPAddress    string                 `bson:"ip_address,omitempty" json:"ip_address,omitempty"`
	UserAgent    string                 `bson:"user_agent,omitempty" json:"user_agent,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"created_at"`
}

// Действия, фиксируемые в журнале аудита
const (
	AuditActionSoftDelete = "soft_delete_classification"
	AuditActionHardDelete = "hard_delete_classification"
	AuditActionRestore    = "restore_classification"
)

// AuditResourceClassifications - тип ресурса для записей журнала
const AuditResourceClassifications = "classifications"

// Principal - субъект запроса, загружаемый из общей с auth-service схемы.
// Роли и разрешения читаются из базы на каждый запрос, из токена
// берётся только идентификатор пользователя.
type Principal struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"is_active"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	IsAdmin     bool      `json:"is_admin"`
}

// HasPermission проверяет наличие разрешения у субъекта
func (p *Principal) HasPermission(permission string) bool {
	for _, granted := range p.Permissions {
		if granted == permission {
			return true
		}
	}
	return false
}

// HasRole проверяет наличие роли у субъекта
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки приложения
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	Kafka        KafkaConfig
	JWT          JWTConfig
	Uploads      UploadsConfig
	Classifier   ClassifierConfig
	CORS         CORSConfig
	LogLevel     string
	LogstashAddr string
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL.
// База общая с auth-service: классификации пишутся через GORM,
// а субъект запроса (роли и разрешения) читается напрямую через pgx.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - настройки подключения к Redis.
// Номер БД должен совпадать с auth-service: здесь читается denylist
// отозванных access токенов, который auth-service пишет.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	ListCacheTTL time.Duration
}

// MongoConfig - настройки подключения к MongoDB для журнала аудита
type MongoConfig struct {
	URI      string
	Database string
}

// KafkaConfig - настройки Kafka для отправки событий классификаций
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// JWTConfig - секрет для проверки access токенов.
// Должен совпадать с секретом auth-service.
type JWTConfig struct {
	Secret string
}

// UploadsConfig - каталог для загружаемых изображений
type UploadsConfig struct {
	Dir string
}

// ClassifierConfig - выбор и настройки классификатора зерна
type ClassifierConfig struct {
	Mode           string // "mock" или "ml"
	MLBaseURL      string
	MLTimeout      time.Duration
	FallbackToMock bool
}

// CORSConfig - разрешённые источники для CORS
type CORSConfig struct {
	AllowedOrigins []string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	mlTimeout, err := time.ParseDuration(getEnv("ML_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ML_TIMEOUT: %w", err)
	}

	cacheTTL, err := time.ParseDuration(getEnv("LIST_CACHE_TTL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LIST_CACHE_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8081"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "demeter"),
			Password: getEnv("DB_PASSWORD", "demeter"),
			DBName:   getEnv("DB_NAME", "demeter"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			ListCacheTTL: cacheTTL,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "demeter"),
		},
		Kafka: KafkaConfig{
			Brokers: splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "classification-events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		},
		Uploads: UploadsConfig{
			Dir: getEnv("UPLOADS_DIR", "uploads"),
		},
		Classifier: ClassifierConfig{
			Mode:           getEnv("CLASSIFIER_MODE", "mock"),
			MLBaseURL:      getEnv("ML_BASE_URL", "http://localhost:9000/classify"),
			MLTimeout:      mlTimeout,
			FallbackToMock: getEnvBool("ML_FALLBACK_TO_MOCK", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogstashAddr: getEnv("LOGSTASH_ADDR", ""),
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает значение переменной окружения как int
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool получает значение переменной окружения как bool
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// splitAndTrim разбивает список значений через запятую, отбрасывая пустые элементы
func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

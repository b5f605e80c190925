package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки фонового воркера
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Mongo        MongoConfig
	Kafka        KafkaConfig
	Cron         CronConfig
	LogLevel     string
	LogstashAddr string
}

// ServerConfig - настройки HTTP сервера healthcheck и метрик
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL.
// Воркер подключается к базе auth-service: чистка протухших refresh
// токенов выполняется напрямую по таблице refresh_tokens.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - настройки подключения к Redis.
// Здесь воркер хранит суточные счётчики классификаций по типам зерна.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	StatsTTL time.Duration
}

// MongoConfig - настройки подключения к MongoDB журнала аудита
type MongoConfig struct {
	URI      string
	Database string
}

// KafkaConfig - настройки подписки на события классификаций
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// CronConfig - расписания фоновых задач и параметры удержания данных
type CronConfig struct {
	TokenSweep         string
	AuditRetention     string
	AuditRetentionDays int
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	statsTTL, err := time.ParseDuration(getEnv("STATS_TTL", "48h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8082"),
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
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			StatsTTL: statsTTL,
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "demeter"),
		},
		Kafka: KafkaConfig{
			Brokers:  splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_TOPIC", "classification-events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "background-worker"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		Cron: CronConfig{
			TokenSweep:         getEnv("CRON_TOKEN_SWEEP", "@hourly"),
			AuditRetention:     getEnv("CRON_AUDIT_RETENTION", "0 3 * * *"),
			AuditRetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", 180),
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

// Address возвращает адрес HTTP сервера в формате host:port
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

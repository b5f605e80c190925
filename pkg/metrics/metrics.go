package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики (общие для всех сервисов)
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="auth"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbConnectionsOpen - количество открытых соединений с БД
var DbConnectionsOpen = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_connections_open",
		Help: "Number of open database connections",
	},
	[]string{"service", "state"}, // state: idle, in_use
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisCacheHits - попадания в кеш
var RedisCacheHits = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_hits_total",
		Help: "Total number of Redis cache hits",
	},
	[]string{"service", "key_prefix"},
)

// RedisCacheMisses - промахи кеша
var RedisCacheMisses = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_cache_misses_total",
		Help: "Total number of Redis cache misses",
	},
	[]string{"service", "key_prefix"},
)

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"},
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaConsumeDuration - время обработки сообщения
var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Business Метрики (специфичные для Demeter)
// =============================================================================

// --- Auth Service ---

// AuthRegistrations - регистрации пользователей
var AuthRegistrations = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Total number of user registrations",
	},
)

// AuthLogins - попытки входа
var AuthLogins = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts",
	},
	[]string{"status"}, // success, failed
)

// AuthTokensIssued - выданные токены
var AuthTokensIssued = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Total number of tokens issued",
	},
	[]string{"type"}, // access, refresh
)

// AuthTokenRefreshes - обновления access токена по refresh токену
var AuthTokenRefreshes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_token_refreshes_total",
		Help: "Total number of access token refreshes",
	},
	[]string{"status"}, // success, failed
)

// AuthTokensRevoked - отозванные refresh токены
var AuthTokensRevoked = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_tokens_revoked_total",
		Help: "Total number of refresh tokens revoked",
	},
	[]string{"reason"}, // logout, logout_all, password_change, account_delete
)

// --- Classification Service ---

// ClassificationsCreated - созданные классификации по типу зерна
var ClassificationsCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "classifications_created_total",
		Help: "Total number of grain classifications created",
	},
	[]string{"grain_type"},
)

// ClassifierRequests - обращения к классификатору
var ClassifierRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "classifier_requests_total",
		Help: "Total number of classifier invocations",
	},
	[]string{"backend", "status"}, // backend: ml, mock; status: success, failed
)

// ClassifierFallbacks - переключения с ML на mock
var ClassifierFallbacks = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "classifier_fallbacks_total",
		Help: "Total number of fallbacks from ML classifier to mock",
	},
)

// ImagesUploaded - загруженные изображения
var ImagesUploaded = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "images_uploaded_total",
		Help: "Total number of image uploads",
	},
	[]string{"status"}, // success, rejected
)

// --- Background Worker ---

// WorkerExpiredTokensDeleted - удалённые протухшие refresh токены
var WorkerExpiredTokensDeleted = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "worker_expired_tokens_deleted_total",
		Help: "Total number of expired refresh tokens deleted by worker",
	},
)

// WorkerSweeps - запуски фоновых чисток
var WorkerSweeps = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_sweeps_total",
		Help: "Total number of housekeeping sweeps",
	},
	[]string{"job", "status"}, // job: token_cleanup, audit_retention; status: success, failed
)

// WorkerEventsProcessed - обработанные события классификаций
var WorkerEventsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_events_processed_total",
		Help: "Total number of classification events processed by worker",
	},
	[]string{"status"}, // success, failed
)

// WorkerClassificationsCounted - учтённые классификации по типам зерна
var WorkerClassificationsCounted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "worker_classifications_counted_total",
		Help: "Total number of classification events counted by grain type",
	},
	[]string{"grain_type"},
)

// WorkerSweepDuration - время выполнения чистки
var WorkerSweepDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "worker_sweep_duration_seconds",
		Help:    "Duration of housekeeping sweeps",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	},
	[]string{"job"},
)

//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"
	"demeter/background-worker-service/internal/app/background-worker/processor"
	"demeter/background-worker-service/internal/app/background-worker/repository"
	"demeter/background-worker-service/internal/app/background-worker/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const statsTTL = 48 * time.Hour

// BackgroundWorkerE2ETestSuite проверяет полный путь события:
// Kafka -> consumer -> сервис статистики -> счётчик в Redis.
// Требует запущенные Kafka и Redis.
type BackgroundWorkerE2ETestSuite struct {
	suite.Suite
	redisClient   *redis.Client
	kafkaWriter   *kafka.Writer
	statsRepo     repository.StatsRepository
	statsSvc      *service.StatsService
	kafkaConsumer *processor.KafkaConsumer
	ctx           context.Context
	cancel        context.CancelFunc
}

func TestBackgroundWorkerE2ESuite(t *testing.T) {
	suite.Run(t, new(BackgroundWorkerE2ETestSuite))
}

func (s *BackgroundWorkerE2ETestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	// Redis
	redisAddr := getEnv("TEST_REDIS_ADDR", "localhost:6380")
	s.redisClient = redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	_, err := s.redisClient.Ping(s.ctx).Result()
	require.NoError(s.T(), err, "Failed to connect to Redis")

	// Kafka
	kafkaBroker := getEnv("TEST_KAFKA_BROKER", "localhost:9096")
	kafkaTopic := getEnv("TEST_KAFKA_TOPIC", "classification-events-test")

	// Создаём топик если не существует
	s.createKafkaTopic(kafkaBroker, kafkaTopic)

	// Kafka Writer для отправки событий
	s.kafkaWriter = &kafka.Writer{
		Addr:         kafka.TCP(kafkaBroker),
		Topic:        kafkaTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	s.statsRepo = repository.NewStatsRepository(s.redisClient, statsTTL)
	s.statsSvc = service.NewStatsService(s.statsRepo)

	// Kafka Consumer с уникальным group ID для каждого запуска
	s.kafkaConsumer = processor.NewKafkaConsumer(
		[]string{kafkaBroker},
		kafkaTopic,
		"e2e-test-group-"+uuid.New().String(),
		1,    // minBytes
		10e6, // maxBytes (10MB)
		s.statsSvc,
	)

	s.kafkaConsumer.Start(s.ctx)

	// Даём consumer время вступить в группу и получить партиции
	time.Sleep(3 * time.Second)
}

func (s *BackgroundWorkerE2ETestSuite) createKafkaTopic(broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		s.T().Logf("Warning: Failed to connect to Kafka for topic creation: %v", err)
		return
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		s.T().Logf("Warning: Failed to get Kafka controller: %v", err)
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.Dial("tcp", controllerAddr)
	if err != nil {
		// Fallback: используем исходное соединение
		controllerConn = conn
	} else {
		defer controllerConn.Close()
	}

	topicConfigs := []kafka.TopicConfig{
		{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		s.T().Logf("Topic creation (may already exist): %v", err)
	}
}

func (s *BackgroundWorkerE2ETestSuite) SetupTest() {
	// Очистка Redis
	s.redisClient.FlushDB(s.ctx)
}

func (s *BackgroundWorkerE2ETestSuite) TearDownSuite() {
	if s.kafkaConsumer != nil {
		s.kafkaConsumer.Stop()
	}
	s.cancel()

	if s.kafkaWriter != nil {
		s.kafkaWriter.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
}

// ===================== Helper Methods =====================

func (s *BackgroundWorkerE2ETestSuite) produceEvent(event *entity.ClassificationEvent) {
	eventJSON, err := json.Marshal(event)
	s.Require().NoError(err)

	err = s.kafkaWriter.WriteMessages(s.ctx, kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: eventJSON,
	})
	s.Require().NoError(err)
}

// waitForCount ждёт, пока суточный счётчик не достигнет ожидаемого значения
func (s *BackgroundWorkerE2ETestSuite) waitForCount(grainType string, date time.Time, expected int64, timeout time.Duration) {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		count, err := s.statsSvc.DailyCount(s.ctx, grainType, date)
		if err == nil && count >= expected {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	s.T().Logf("Timeout waiting for counter %s to reach %d", grainType, expected)
}

func newEvent(grainType string, confidence float64) *entity.ClassificationEvent {
	return &entity.ClassificationEvent{
		EventType:        entity.EventClassificationCreated,
		ClassificationID: uuid.New(),
		UserID:           uuid.New(),
		GrainType:        grainType,
		ConfidenceScore:  confidence,
		CreatedAt:        time.Now(),
	}
}

// ===================== E2E Tests =====================

func (s *BackgroundWorkerE2ETestSuite) TestE2E_ClassificationCreated_FullFlow() {
	// Полный E2E тест:
	// 1. Отправляем CLASSIFICATION_CREATED в Kafka
	// 2. Worker обрабатывает событие
	// 3. Проверяем суточный счётчик в Redis

	// Arrange
	now := time.Now()
	event := newEvent("Soja", 0.93)

	// Act
	s.produceEvent(event)
	s.waitForCount("Soja", now, 1, 15*time.Second)

	// Assert
	count, err := s.statsSvc.DailyCount(s.ctx, "Soja", now)
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	// Ключ создан по схеме и с TTL
	key := entity.StatsKey("Soja", now)
	ttl, err := s.redisClient.TTL(s.ctx, key).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
	s.LessOrEqual(ttl, statsTTL)
}

func (s *BackgroundWorkerE2ETestSuite) TestE2E_MultipleEvents_Aggregated() {
	// Несколько событий разных типов зерна агрегируются в отдельные счётчики

	now := time.Now()

	s.produceEvent(newEvent("Soja", 0.91))
	s.produceEvent(newEvent("Soja", 0.85))
	s.produceEvent(newEvent("Soja", 0.98))
	s.produceEvent(newEvent("Milho", 0.77))
	s.produceEvent(newEvent("Milho", 0.81))

	s.waitForCount("Soja", now, 3, 15*time.Second)
	s.waitForCount("Milho", now, 2, 15*time.Second)

	sojaCount, err := s.statsSvc.DailyCount(s.ctx, "Soja", now)
	s.Require().NoError(err)
	s.Equal(int64(3), sojaCount)

	milhoCount, err := s.statsSvc.DailyCount(s.ctx, "Milho", now)
	s.Require().NoError(err)
	s.Equal(int64(2), milhoCount)
}

func (s *BackgroundWorkerE2ETestSuite) TestE2E_UnknownEventType_Ignored() {
	// Событие неизвестного типа не попадает в счётчики

	now := time.Now()

	event := newEvent("Trigo", 0.9)
	event.EventType = "CLASSIFICATION_ARCHIVED"
	s.produceEvent(event)

	// Даём consumer время обработать событие
	time.Sleep(3 * time.Second)

	count, err := s.statsSvc.DailyCount(s.ctx, "Trigo", now)
	s.Require().NoError(err)
	s.Equal(int64(0), count)
}

func (s *BackgroundWorkerE2ETestSuite) TestE2E_MalformedMessage_DoesNotBlockStream() {
	// Нечитаемое сообщение пропускается, следующие события
	// обрабатываются штатно

	now := time.Now()

	err := s.kafkaWriter.WriteMessages(s.ctx, kafka.Message{
		Key:   []byte("garbage"),
		Value: []byte("not a json {{{"),
	})
	s.Require().NoError(err)

	s.produceEvent(newEvent("Arroz", 0.88))

	s.waitForCount("Arroz", now, 1, 15*time.Second)

	count, err := s.statsSvc.DailyCount(s.ctx, "Arroz", now)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

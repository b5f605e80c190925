package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"demeter/background-worker-service/internal/app/background-worker/entity"
	"demeter/background-worker-service/internal/app/background-worker/service"
	"demeter/pkg/logger"
	"demeter/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "background-worker"

// KafkaConsumer обрабатывает события из Kafka топика classification-events
type KafkaConsumer struct {
	reader   *kafka.Reader
	statsSvc service.StatsServiceInterface
	topic    string
	groupID  string
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	statsSvc service.StatsServiceInterface,
) *KafkaConsumer {
	// Настраиваем Kafka reader. CommitInterval не задаём: offset
	// коммитится синхронно и только после успешной обработки события
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    minBytes,         // Минимум байт для fetch запроса
		MaxBytes:    maxBytes,         // Максимум байт для fetch запроса
		StartOffset: kafka.LastOffset, // Начинаем читать с последнего сообщения
		// Таймауты
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:   reader,
		statsSvc: statsSvc,
		topic:    topic,
		groupID:  groupID,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().
		Str("topic", c.topic).
		Str("group", c.groupID).
		Msg("Starting Kafka consumer...")

	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("Stopping Kafka consumer...")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("Kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			// Читаем сообщение с таймаутом
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				// Если контекст был отменен, выходим
				if ctx.Err() != nil {
					return
				}

				// Таймаут чтения при пустом топике - штатная ситуация
				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}

				// Логируем ошибку и продолжаем
				metrics.RecordKafkaError(serviceName, c.topic, "fetch")
				logger.Error().Err(err).Msg("Error fetching message")
				time.Sleep(time.Second)
				continue
			}

			// Обрабатываем сообщение
			start := time.Now()
			if err := c.processMessage(ctx, message); err != nil {
				logger.Error().
					Err(err).
					Int64("offset", message.Offset).
					Int("partition", message.Partition).
					Msg("Error processing message")
				// Не коммитим offset при ошибке - сообщение будет повторно обработано
				continue
			}

			metrics.RecordKafkaMessageConsumed(serviceName, c.topic, c.groupID, time.Since(start))

			// Коммитим offset после успешной обработки
			if err := c.reader.CommitMessages(ctx, message); err != nil {
				metrics.RecordKafkaError(serviceName, c.topic, "commit")
				logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	// Парсим событие классификации. Нечитаемое сообщение пропускаем
	// без ошибки: повторная доставка его не исправит
	var event entity.ClassificationEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		metrics.RecordKafkaError(serviceName, c.topic, "unmarshal")
		logger.Error().
			Err(err).
			Int64("offset", message.Offset).
			Int("partition", message.Partition).
			Msg("Skipping malformed message")
		return nil
	}

	logger.Info().
		Str("event_type", event.EventType).
		Str("classification_id", event.ClassificationID.String()).
		Int64("offset", message.Offset).
		Int("partition", message.Partition).
		Msg("Received classification event")

	// Обрабатываем событие
	if err := c.statsSvc.ProcessEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to process classification event: %w", err)
	}

	return nil
}

// GetStats возвращает статистику consumer
func (c *KafkaConsumer) GetStats() kafka.ReaderStats {
	return c.reader.Stats()
}

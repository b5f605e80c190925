package messaging

import (
	"context"
	"fmt"
	"time"

	"demeter/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "classification-service"

// KafkaProducer публикует события классификаций в Kafka.
// Ключ сообщения - идентификатор пользователя, поэтому события одного
// пользователя сохраняют порядок внутри партиции.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Second,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage отправляет одно сообщение в настроенный топик
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	timer.Success()
	return nil
}

// Close закрывает writer и освобождает ресурсы
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

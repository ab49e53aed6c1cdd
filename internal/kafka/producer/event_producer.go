package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dhoini/Subscription-ledger/internal/domain"
	"github.com/Dhoini/Subscription-ledger/pkg/logger"
	"github.com/IBM/sarama"
)

// EventProducer интерфейс для публикации событий леджера в Kafka.
// Совместим с ledger.EventSink и подключается к леджеру напрямую.
type EventProducer interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

type kafkaEventProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaEventProducer создает новый продюсер событий леджера.
// Тип события используется как имя топика, аккаунт - как ключ сообщения,
// чтобы события одного аккаунта попадали в одну партицию.
func NewKafkaEventProducer(producer sarama.SyncProducer, log *logger.Logger) EventProducer {
	return &kafkaEventProducer{
		producer: producer,
		log:      log,
	}
}

// Publish публикует событие леджера в Kafka
func (p *kafkaEventProducer) Publish(ctx context.Context, event domain.Event) error {
	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	key := string(event.Account)
	if key == "" {
		key = event.ID.String()
	}

	message := &sarama.ProducerMessage{
		Topic: string(event.Type),
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(event.Type),
			},
		},
		Timestamp: event.Timestamp,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish ledger event: %w", err)
	}

	p.log.Info("Published ledger event to topic %s: partition=%d offset=%d",
		event.Type, partition, offset)

	return nil
}

// Close закрывает продюсер
func (p *kafkaEventProducer) Close() error {
	return p.producer.Close()
}

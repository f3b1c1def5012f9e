package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
)

// Notifier публикует уведомления об изменении состояния корзины в Kafka.
// Это необязательный канал: при его отсутствии cross-context изменения
// обнаруживает только poll-цикл. Уведомления best-effort и не упорядочивают
// конкурентных писателей — last write wins сохраняется.
type Notifier struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewNotifier создаёт Kafka producer для уведомлений об изменениях.
func NewNotifier(brokers []string) (*Notifier, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // Для идемпотентности

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Notifier{
		producer: producer,
		logger:   log.WithField("component", "kafka-notifier"),
	}, nil
}

// NotifyChanged публикует событие cart.changed от имени контекста origin.
func (n *Notifier) NotifyChanged(_ context.Context, origin string) error {
	event := NewCartChangedEvent(origin)
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     TopicCartEvents,
		Key:       sarama.StringEncoder(origin),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: time.Now(),
	}

	partition, offset, err := n.producer.SendMessage(msg)
	if err != nil {
		n.logger.WithError(err).WithField("origin", origin).Error("failed to send message to kafka")
		return fmt.Errorf("failed to send message: %w", err)
	}

	n.logger.WithFields(log.Fields{
		"event_id":  event.EventID,
		"partition": partition,
		"offset":    offset,
	}).Debug("cart change notification sent")

	return nil
}

// Close закрывает producer.
func (n *Notifier) Close() error {
	if err := n.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}

var _ domain.ChangeNotifier = (*Notifier)(nil)

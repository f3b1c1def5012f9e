package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// ChangeHandler вызывается для каждого уведомления об изменении корзины,
// пришедшего из другого контекста исполнения.
type ChangeHandler func(event CartEvent)

// Listener подписывается на cart.events и дёргает handler для чужих записей.
// Потерянное или задержанное уведомление не ломает консистентность: то же
// изменение в любом случае обнаружит poll-цикл. Поэтому здесь нет ни retry,
// ни DLQ — событие лишь подсказка "перечитай хранилище".
type Listener struct {
	consumer sarama.ConsumerGroup
	handler  ChangeHandler
	// localOrigin — идентификатор собственного контекста; свои события пропускаются.
	localOrigin string
	logger      *log.Entry
	wg          sync.WaitGroup
}

// NewListener создаёт consumer group для уведомлений об изменениях корзины.
func NewListener(brokers []string, groupID, localOrigin string, handler ChangeHandler) (*Listener, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Listener{
		consumer:    consumer,
		handler:     handler,
		localOrigin: localOrigin,
		logger:      log.WithField("component", "kafka-listener"),
	}, nil
}

// Start запускает подписку.
func (l *Listener) Start(ctx context.Context) error {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			// Consume вызывается в цикле: при rebalance он завершается.
			if err := l.consumer.Consume(ctx, []string{TopicCartEvents}, l); err != nil {
				l.logger.WithError(err).Error("error from consumer")
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for err := range l.consumer.Errors() {
			l.logger.WithError(err).Error("consumer error")
		}
	}()

	l.logger.WithField("topic", TopicCartEvents).Info("kafka listener started")
	return nil
}

// Stop останавливает подписку.
func (l *Listener) Stop() error {
	if err := l.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	l.wg.Wait()
	l.logger.Info("kafka listener stopped")
	return nil
}

// Setup вызывается при старте consumer session.
func (l *Listener) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup вызывается при завершении consumer session.
func (l *Listener) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim обрабатывает сообщения из partition.
func (l *Listener) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			event, err := ParseCartEvent(message)
			if err != nil {
				l.logger.WithError(err).WithFields(log.Fields{
					"topic":     message.Topic,
					"partition": message.Partition,
					"offset":    message.Offset,
				}).Warn("skipping malformed cart event")
				session.MarkMessage(message, "")
				continue
			}

			if event.Origin != l.localOrigin {
				l.handler(*event)
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// ParseCartEvent парсит CartEvent из сообщения.
func ParseCartEvent(message *sarama.ConsumerMessage) (*CartEvent, error) {
	var event CartEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cart event: %w", err)
	}
	return &event, nil
}

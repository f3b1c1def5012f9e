package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип события
type EventType string

const (
	// EventTypeCartChanged — состояние корзины было перезаписано каким-то контекстом.
	// Событие не несёт самого изменения: подписчик обязан перечитать хранилище.
	EventTypeCartChanged EventType = "cart.changed"
)

// Topics для Kafka
const (
	TopicCartEvents = "cart.events"
)

// CartEvent представляет уведомление об изменении состояния корзины.
type CartEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	// Origin — идентификатор контекста исполнения, записавшего новое состояние.
	// Позволяет подписчику игнорировать собственные записи.
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCartChangedEvent создаёт событие перезаписи состояния корзины.
func NewCartChangedEvent(origin string) *CartEvent {
	return &CartEvent{
		EventID:   uuid.NewString(),
		EventType: EventTypeCartChanged,
		Origin:    origin,
		Timestamp: time.Now().UTC(),
	}
}

package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
)

const (
	// stateKey — фиксированный ключ, под которым лежит всё сериализованное состояние корзины.
	stateKey = "cart:state"

	defaultDialTimeout = 5 * time.Second
)

// StateStore — реализация durable-хранилища состояния поверх Redis.
// Одна запись, полная замена при каждой записи; TTL не используется,
// состояние живёт до явной перезаписи.
type StateStore struct {
	client *redis.Client
}

// NewStateStore оборачивает готовый клиент Redis.
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Open подключается к Redis по адресу и проверяет доступность.
func Open(ctx context.Context, addr string) (*StateStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: defaultDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &StateStore{client: client}, nil
}

// Load возвращает текущую запись состояния или ok=false, если ключа нет.
func (s *StateStore) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, stateKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cart state: %w", err)
	}
	return data, true, nil
}

// Save заменяет запись состояния целиком.
func (s *StateStore) Save(ctx context.Context, data []byte) error {
	if err := s.client.Set(ctx, stateKey, data, 0).Err(); err != nil {
		return fmt.Errorf("set cart state: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis; используется health-чекером.
func (s *StateStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close закрывает подключение.
func (s *StateStore) Close() error {
	return s.client.Close()
}

var _ domain.StateStore = (*StateStore)(nil)

package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
	"github.com/vladislavdragonenkov/cartsync/internal/health"
	"github.com/vladislavdragonenkov/cartsync/internal/storage/memory"
	"github.com/vladislavdragonenkov/cartsync/internal/storage/postgres"
	"github.com/vladislavdragonenkov/cartsync/internal/storage/redis"
)

// Поддерживаемые бекенды durable-хранилища состояния корзины.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Dependencies содержит инфраструктурные зависимости приложения.
type Dependencies struct {
	State  domain.StateStore
	Pinger health.Pinger
	Logger *log.Entry

	closeFn func() error
}

// Close освобождает подключения к хранилищу.
func (d *Dependencies) Close() error {
	if d.closeFn == nil {
		return nil
	}
	return d.closeFn()
}

// NewDependencies создаёт durable-хранилище состояния корзины по конфигурации.
// Memory-бекенд живёт в пределах процесса и подходит для разработки и тестов;
// redis и postgres дают общее хранилище для нескольких контекстов исполнения.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	switch cfg.Storage {
	case "", StorageMemory:
		logger.Info("using in-memory cart state store")
		return &Dependencies{
			State:  memory.NewStateStore(),
			Logger: logger,
		}, nil

	case StorageRedis:
		store, err := redis.Open(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.WithField("addr", cfg.RedisAddr).Info("using redis cart state store")
		return &Dependencies{
			State:   store,
			Pinger:  store,
			Logger:  logger,
			closeFn: store.Close,
		}, nil

	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(schemaCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure cart state schema: %w", err)
		}
		logger.Info("using postgres cart state store")
		return &Dependencies{
			State:   postgres.NewStateRepository(store),
			Pinger:  store,
			Logger:  logger,
			closeFn: store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage)
	}
}

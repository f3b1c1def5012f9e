package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/cartsync/internal/domain"
)

const opTimeout = 5 * time.Second

// stateKey — фиксированный ключ единственной записи состояния корзины.
// Таблица допускает и другие ключи (например, отдельные корзины по
// пользователям в будущем), но этот репозиторий работает только с одним.
const stateKey = "cart"

// stateRepository хранит сериализованное состояние корзины одной строкой.
type stateRepository struct {
	db *sql.DB
}

// NewStateRepository создаёт PostgreSQL-реализацию StateStore.
func NewStateRepository(store *Store) domain.StateStore {
	return &stateRepository{db: store.DB()}
}

// EnsureSchema создаёт таблицу состояния, если её ещё нет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	schemaCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(schemaCtx, `
		CREATE TABLE IF NOT EXISTS cart_state (
			key        TEXT PRIMARY KEY,
			data       BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure cart_state schema: %w", err)
	}
	return nil
}

// Load возвращает запись состояния или ok=false, если её нет.
func (r *stateRepository) Load(ctx context.Context) ([]byte, bool, error) {
	loadCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var data []byte
	err := r.db.QueryRowContext(loadCtx, `
		SELECT data FROM cart_state WHERE key = $1
	`, stateKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select cart state: %w", err)
	}

	return data, true, nil
}

// Save заменяет запись состояния целиком (upsert по ключу).
func (r *stateRepository) Save(ctx context.Context, data []byte) error {
	saveCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(saveCtx, `
		INSERT INTO cart_state (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, stateKey, data)
	if err != nil {
		return fmt.Errorf("upsert cart state: %w", err)
	}
	return nil
}

var _ domain.StateStore = (*stateRepository)(nil)
